package httpapi

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/dmitrijs2005/keyvault/internal/common"
	"github.com/dmitrijs2005/keyvault/internal/logging"
	"github.com/dmitrijs2005/keyvault/internal/server/models"
)

type handler struct {
	auth   AuthService
	vault  VaultService
	logger logging.Logger
}

type SignInRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type SignInResponse struct {
	AccessToken string `json:"access_token"`
}

type KeyPairResponse struct {
	PublicKey   string    `json:"public_key"`
	Fingerprint string    `json:"fingerprint"`
	Algorithm   string    `json:"algorithm"`
	CreatedAt   time.Time `json:"created_at"`
}

func keyPairResponse(p models.PublicKeyPair) KeyPairResponse {
	return KeyPairResponse{
		PublicKey:   p.PublicKeyPEM,
		Fingerprint: p.Fingerprint,
		Algorithm:   p.Algorithm,
		CreatedAt:   p.CreatedAt,
	}
}

func (h *handler) healthz(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (h *handler) signIn(w http.ResponseWriter, r *http.Request) {
	var req SignInRequest
	if err := decodeJSON(r.Body, &req); err != nil {
		h.writeError(w, r, err)
		return
	}

	token, err := h.auth.Login(r.Context(), req.Email, req.Password)
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, SignInResponse{AccessToken: token})
}

func (h *handler) generateKeyPair(w http.ResponseWriter, r *http.Request) {
	id, _ := identityFrom(r.Context())

	pair, created, err := h.vault.EnsureKeyPair(r.Context(), id.ID)
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	status := http.StatusOK
	if created {
		status = http.StatusCreated
	}
	writeJSON(w, status, keyPairResponse(pair))
}

func (h *handler) publicKey(w http.ResponseWriter, r *http.Request) {
	id, _ := identityFrom(r.Context())

	pair, err := h.vault.PublicKey(r.Context(), id.ID)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, keyPairResponse(pair))
}

func (h *handler) encrypt(w http.ResponseWriter, r *http.Request) {
	h.transform(w, r, h.vault.Encrypt)
}

func (h *handler) decrypt(w http.ResponseWriter, r *http.Request) {
	h.transform(w, r, h.vault.Decrypt)
}

// transform runs a raw-body-in, raw-body-out vault operation.
func (h *handler) transform(w http.ResponseWriter, r *http.Request, op func(ctx context.Context, userID string, in []byte) ([]byte, error)) {
	id, _ := identityFrom(r.Context())

	body, err := io.ReadAll(r.Body)
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	out, err := op(r.Context(), id.ID, body)
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	w.Header().Set("Content-Type", "application/octet-stream")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(out)
}

// decodeJSON decodes exactly one JSON object with no unknown fields.
func decodeJSON(r io.Reader, v any) error {
	dec := json.NewDecoder(r)
	dec.DisallowUnknownFields()

	if err := dec.Decode(v); err != nil {
		var tooBig *http.MaxBytesError
		if errors.As(err, &tooBig) {
			return err
		}
		return fmt.Errorf("%w: %v", common.ErrMalformedRequest, err)
	}
	if _, err := dec.Token(); !errors.Is(err, io.EOF) {
		return fmt.Errorf("%w: trailing data after JSON body", common.ErrMalformedRequest)
	}
	return nil
}
