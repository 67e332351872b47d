// Package cli is the interactive KeyVault command-line client.
//
// The REPL signs in over gRPC and then drives the caller's key pair:
//
//	login               sign in (prompts for the password without echo)
//	logout              forget the access token
//	keypair             create the key pair, or show the existing one
//	pubkey              print the public key PEM
//	encrypt <text>      encrypt text, print base64 ciphertext
//	decrypt <base64>    decrypt a ciphertext produced by encrypt
//	ping                check the server
//	help, exit
//
// App.Run blocks until the user exits or input ends.
package cli
