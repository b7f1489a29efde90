package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/brojonat/minisolscan/service/db"
	"github.com/brojonat/minisolscan/service/metrics"
	natspkg "github.com/brojonat/minisolscan/service/nats"
	"github.com/brojonat/minisolscan/service/network"
	"github.com/brojonat/minisolscan/service/session"
	"github.com/brojonat/minisolscan/service/solana"
)

const (
	maxRequestBodySize = 1 << 16 // preferences are tiny
	defaultListLimit   = 50
	maxListLimit       = 500
)

// Fetcher looks up a transaction on a network.
type Fetcher interface {
	Fetch(ctx context.Context, signature string, cfg network.Config) (*solana.TransactionView, error)
}

// History stores and lists lookups.
type History interface {
	RecordLookup(ctx context.Context, params db.RecordLookupParams) (*db.Lookup, error)
	ListLookups(ctx context.Context, params db.ListLookupsParams) ([]*db.Lookup, error)
}

// networksResponse lists the selectable presets and the active network.
type networksResponse struct {
	Networks []network.Config `json:"networks"`
	Active   network.Config   `json:"active"`
}

// preferencesResponse is the session's persisted UI state.
type preferencesResponse struct {
	Network network.Config `json:"network"`
	Theme   session.Theme  `json:"theme"`
}

// transactionResponse is a lookup result with display helpers.
type transactionResponse struct {
	*solana.TransactionView
	FeeSOL  string       `json:"fee_sol"`
	Network network.Type `json:"network"`
}

// handleListNetworks returns a handler that lists the network presets.
// GET /api/v1/networks
func handleListNetworks(sessions *Sessions, policy network.EndpointPolicy, logger *slog.Logger) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		sess, ok := openSession(w, r, sessions, logger)
		if !ok {
			return
		}
		writeJSON(w, networksResponse{
			Networks: policy.Presets(),
			Active:   sess.Network(),
		}, http.StatusOK)
	})
}

// handleGetNetwork returns a handler that reports the active network.
// GET /api/v1/network
func handleGetNetwork(sessions *Sessions, logger *slog.Logger) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		sess, ok := openSession(w, r, sessions, logger)
		if !ok {
			return
		}
		writeJSON(w, sess.Network(), http.StatusOK)
	})
}

// selectNetworkRequest is the body of PUT /api/v1/network.
type selectNetworkRequest struct {
	Network   string `json:"network"`
	CustomURL string `json:"custom_url"`
}

// handleSelectNetwork returns a handler that switches the active network.
// PUT /api/v1/network
func handleSelectNetwork(sessions *Sessions, policy network.EndpointPolicy, m *metrics.Metrics, logger *slog.Logger) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		sess, ok := openSession(w, r, sessions, logger)
		if !ok {
			return
		}

		var req selectNetworkRequest
		if err := decodeBody(w, r, &req); err != nil {
			writeError(w, err.Error(), http.StatusBadRequest)
			return
		}

		t, err := network.ParseType(req.Network)
		if err != nil {
			writeError(w, err.Error(), http.StatusBadRequest)
			return
		}

		cfg, err := selectNetwork(r.Context(), sess, policy, t, req.CustomURL)
		if m != nil {
			m.RecordPreferenceWrite(network.KeySelectedNetwork, ignoreInvalid(err))
		}
		if errors.Is(err, network.ErrInvalidSelection) {
			writeError(w, err.Error(), http.StatusBadRequest)
			return
		}
		if err != nil {
			logger.ErrorContext(r.Context(), "failed to select network", "network", t, "error", err)
			writeError(w, "failed to save network selection", http.StatusInternalServerError)
			return
		}
		if m != nil {
			m.RecordNetworkSelection(string(cfg.Type))
		}

		writeJSON(w, cfg, http.StatusOK)
	})
}

// handleGetPreferences returns a handler that reports the session's preferences.
// GET /api/v1/preferences
func handleGetPreferences(sessions *Sessions, logger *slog.Logger) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		sess, ok := openSession(w, r, sessions, logger)
		if !ok {
			return
		}
		writeJSON(w, preferencesResponse{
			Network: sess.Network(),
			Theme:   sess.Theme(),
		}, http.StatusOK)
	})
}

// setThemeRequest is the body of PUT /api/v1/theme. Toggle flips the
// current theme and ignores Theme.
type setThemeRequest struct {
	Theme  string `json:"theme"`
	Toggle bool   `json:"toggle"`
}

// handleSetTheme returns a handler that sets or toggles the theme.
// PUT /api/v1/theme
func handleSetTheme(sessions *Sessions, m *metrics.Metrics, logger *slog.Logger) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		sess, ok := openSession(w, r, sessions, logger)
		if !ok {
			return
		}

		var req setThemeRequest
		if err := decodeBody(w, r, &req); err != nil {
			writeError(w, err.Error(), http.StatusBadRequest)
			return
		}

		var err error
		if req.Toggle {
			_, err = sess.ToggleTheme(r.Context())
		} else {
			var theme session.Theme
			theme, err = session.ParseTheme(req.Theme)
			if err != nil {
				writeError(w, err.Error(), http.StatusBadRequest)
				return
			}
			err = sess.SetTheme(r.Context(), theme)
		}
		if m != nil {
			m.RecordPreferenceWrite(session.KeyTheme, err)
		}
		if err != nil {
			logger.ErrorContext(r.Context(), "failed to set theme", "error", err)
			writeError(w, "failed to save theme", http.StatusInternalServerError)
			return
		}

		writeJSON(w, preferencesResponse{
			Network: sess.Network(),
			Theme:   sess.Theme(),
		}, http.StatusOK)
	})
}

// handleSignatureCheck returns a handler that classifies a signature without
// touching the network.
// GET /api/v1/signature-check?signature=SIG
func handleSignatureCheck() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		status := solana.ClassifySignature(r.URL.Query().Get("signature"))
		writeJSON(w, map[string]solana.SignatureStatus{"status": status}, http.StatusOK)
	})
}

// handleLookupTransaction returns a handler that looks up a transaction on
// the session's active network. Each session runs one lookup at a time.
// history and publisher are optional.
// GET /api/v1/transactions/{signature}
func handleLookupTransaction(sessions *Sessions, policy network.EndpointPolicy, fetcher Fetcher, history History, publisher natspkg.Publisher, m *metrics.Metrics, logger *slog.Logger) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		sess, ok := openSession(w, r, sessions, logger)
		if !ok {
			return
		}

		done, ok := sess.TryBeginLookup()
		if !ok {
			if m != nil {
				m.RecordLookupRejected()
			}
			writeError(w, "a lookup is already in progress", http.StatusConflict)
			return
		}
		defer done()

		cfg := sess.Network()
		if err := policy.Check(cfg); err != nil {
			writeError(w, err.Error(), http.StatusBadRequest)
			return
		}

		start := time.Now()
		view, err := fetcher.Fetch(r.Context(), r.PathValue("signature"), cfg)
		if err != nil {
			if solana.KindOf(err) == solana.KindFetch {
				logger.WarnContext(r.Context(), "transaction lookup failed", "network", cfg.Type, "error", err)
			}
			writeError(w, lookupErrorMessage(err), lookupErrorStatus(err))
			return
		}

		writeJSON(w, transactionResponse{
			TransactionView: view,
			FeeSOL:          view.FeeSOL(),
			Network:         cfg.Type,
		}, http.StatusOK)

		ctx := context.WithoutCancel(r.Context())
		recordLookup(ctx, history, publisher, view, cfg, start, logger)
	})
}

// recordLookup stores and announces a successful lookup. Failures are
// logged and never reach the caller.
func recordLookup(ctx context.Context, history History, publisher natspkg.Publisher, view *solana.TransactionView, cfg network.Config, at time.Time, logger *slog.Logger) {
	if history != nil {
		_, err := history.RecordLookup(ctx, db.RecordLookupParams{
			Signature:        view.Signature,
			Network:          string(cfg.Type),
			Status:           string(view.Status),
			Slot:             view.Slot,
			Fee:              view.Fee,
			Signer:           view.Signer,
			InstructionCount: len(view.Instructions),
		})
		if err != nil {
			logger.WarnContext(ctx, "failed to record lookup history",
				"signature", view.Signature,
				"error", err,
			)
		}
	}

	if publisher != nil {
		if err := publisher.PublishLookup(ctx, natspkg.FromView(view, cfg, at)); err != nil {
			logger.WarnContext(ctx, "failed to publish lookup event",
				"signature", view.Signature,
				"error", err,
			)
		}
	}
}

// handleListLookups returns a handler that lists lookup history.
// GET /api/v1/lookups?network=NET&limit=N&offset=N
func handleListLookups(history History, logger *slog.Logger) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if history == nil {
			writeError(w, "lookup history is not enabled", http.StatusServiceUnavailable)
			return
		}

		query := r.URL.Query()

		var net network.Type
		if s := query.Get("network"); s != "" {
			t, err := network.ParseType(s)
			if err != nil {
				writeError(w, err.Error(), http.StatusBadRequest)
				return
			}
			net = t
		}

		limit := int32(defaultListLimit)
		if limitStr := query.Get("limit"); limitStr != "" {
			var parsedLimit int
			if _, err := fmt.Sscanf(limitStr, "%d", &parsedLimit); err != nil {
				writeError(w, "invalid limit parameter: must be an integer", http.StatusBadRequest)
				return
			}
			if parsedLimit < 1 {
				writeError(w, "limit must be at least 1", http.StatusBadRequest)
				return
			}
			if parsedLimit > maxListLimit {
				writeError(w, fmt.Sprintf("limit cannot exceed %d", maxListLimit), http.StatusBadRequest)
				return
			}
			limit = int32(parsedLimit)
		}

		offset := int32(0)
		if offsetStr := query.Get("offset"); offsetStr != "" {
			var parsedOffset int
			if _, err := fmt.Sscanf(offsetStr, "%d", &parsedOffset); err != nil {
				writeError(w, "invalid offset parameter: must be an integer", http.StatusBadRequest)
				return
			}
			if parsedOffset < 0 {
				writeError(w, "offset cannot be negative", http.StatusBadRequest)
				return
			}
			offset = int32(parsedOffset)
		}

		lookups, err := history.ListLookups(r.Context(), db.ListLookupsParams{
			Network: string(net),
			Limit:   limit,
			Offset:  offset,
		})
		if err != nil {
			logger.ErrorContext(r.Context(), "failed to list lookups", "error", err)
			writeError(w, "internal server error", http.StatusInternalServerError)
			return
		}

		writeJSON(w, map[string]interface{}{
			"lookups": lookups,
			"count":   len(lookups),
			"limit":   limit,
			"offset":  offset,
		}, http.StatusOK)
	})
}

// lookupErrorStatus maps lookup errors to HTTP status codes.
// selectNetwork resolves the selection and checks it against policy before
// the session persists it.
func selectNetwork(ctx context.Context, sess *session.Session, policy network.EndpointPolicy, t network.Type, customURL string) (network.Config, error) {
	cfg, err := network.Resolve(t, customURL)
	if err != nil {
		return network.Config{}, err
	}
	if err := policy.Check(cfg); err != nil {
		return network.Config{}, err
	}
	return sess.SelectNetwork(ctx, t, customURL)
}

// lookupErrorMessage is the caller-facing text of a lookup error. Upstream
// RPC error text is logged, never returned.
func lookupErrorMessage(err error) string {
	var e *solana.Error
	if errors.As(err, &e) {
		return e.Msg
	}
	return "failed to fetch transaction"
}

func lookupErrorStatus(err error) int {
	switch solana.KindOf(err) {
	case solana.KindValidation:
		return http.StatusBadRequest
	case solana.KindNotFound:
		return http.StatusNotFound
	default:
		return http.StatusBadGateway
	}
}

func openSession(w http.ResponseWriter, r *http.Request, sessions *Sessions, logger *slog.Logger) (*session.Session, bool) {
	sess, err := sessions.FromRequest(w, r)
	if err != nil {
		logger.ErrorContext(r.Context(), "failed to open session", "error", err)
		writeError(w, "failed to load session", http.StatusInternalServerError)
		return nil, false
	}
	return sess, true
}

func ignoreInvalid(err error) error {
	if errors.Is(err, network.ErrInvalidSelection) {
		return nil
	}
	return err
}

// decodeBody reads a size-limited JSON body into v.
func decodeBody(w http.ResponseWriter, r *http.Request, v interface{}) error {
	r.Body = http.MaxBytesReader(w, r.Body, maxRequestBodySize)
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		var maxErr *http.MaxBytesError
		switch {
		case errors.As(err, &maxErr):
			return errors.New("request body too large")
		case errors.Is(err, io.EOF):
			return errors.New("request body is required")
		default:
			return fmt.Errorf("invalid request body: %s", strings.TrimSpace(err.Error()))
		}
	}
	return nil
}

// writeJSON writes a JSON response.
func writeJSON(w http.ResponseWriter, data interface{}, statusCode int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	json.NewEncoder(w).Encode(data)
}

// writeError writes a JSON error response.
func writeError(w http.ResponseWriter, message string, statusCode int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	json.NewEncoder(w).Encode(map[string]string{
		"error": message,
	})
}
