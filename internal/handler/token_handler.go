/*
Package handler provides the HTTP handlers and routing setup for the token issuer.

This file contains the issuance endpoint itself: request binding for the canonical
JSON shape and the legacy query-string shape, invocation of the policy engine, and
mapping of its outcome onto the wire.
*/
package handler

import (
	"net/http"
	"strings"
	"time"

	"peertoken/internal/app/ledger"
	"peertoken/internal/app/policy"
	"peertoken/internal/pkg/logx"
	"peertoken/internal/pkg/metrics"
	"peertoken/internal/pkg/req"
	"peertoken/internal/pkg/resp"
)

// RoomPasswordHeader is the preferred transport for the shared secret; headers
// stay out of URLs and therefore out of most access logs.
const RoomPasswordHeader = "X-Room-Password"

// TokenInput is the canonical JSON request body for POST /token.
type TokenInput struct {
	Type    string `json:"type"`
	Channel string `json:"channel"`
	PW      string `json:"pw"`
}

// tokenResponse is the success payload for both credential kinds.
type tokenResponse struct {
	Type      string `json:"type"`
	Token     string `json:"token"`
	UID       uint32 `json:"uid,omitempty"`
	Account   string `json:"account,omitempty"`
	ExpiresIn int    `json:"expiresIn"`
	ExpiresAt int64  `json:"expiresAt"`
}

// normalizeKind lower-cases the requested type and applies the rtc default.
func normalizeKind(raw string) policy.Kind {
	kind := strings.ToLower(strings.TrimSpace(raw))
	if kind == "" {
		kind = string(policy.KindRTC)
	}
	return policy.Kind(kind)
}

// HandleIssueToken processes the canonical POST /token request: strict JSON body,
// shared secret via header (preferred) or body field, all identity decisions
// delegated to the policy engine.
func HandleIssueToken(deps *AppDeps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var input TokenInput
		if customErr := req.BindJSON(w, r, &input); customErr != nil {
			metrics.ObserveRejection(customErr.Code)
			resp.RespondError(w, r, customErr)
			return
		}

		secret := r.Header.Get(RoomPasswordHeader)
		if secret == "" {
			secret = input.PW
		}

		request := policy.Request{
			Kind:           normalizeKind(input.Type),
			Channel:        strings.TrimSpace(input.Channel),
			SuppliedSecret: secret,
		}

		finishIssuance(deps, w, r, request)
	}
}

// HandleQueryToken processes the legacy GET /token?type=...&channel=... shape.
// It is only routed when the insecure-query toggle is enabled; secrets in URLs
// end up in logs, which is exactly why the canonical shape is POST.
func HandleQueryToken(deps *AppDeps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()

		secret := r.Header.Get(RoomPasswordHeader)
		if secret == "" {
			secret = q.Get("pw")
		}

		request := policy.Request{
			Kind:           normalizeKind(q.Get("type")),
			Channel:        strings.TrimSpace(q.Get("channel")),
			SuppliedSecret: secret,
			ClientUID:      strings.TrimSpace(q.Get("uid")),
			ClientRole:     strings.ToLower(q.Get("role")),
			QueryMode:      true,
		}

		finishIssuance(deps, w, r, request)
	}
}

// finishIssuance runs the engine and writes either the credential or the
// registered error body. Successful issuances feed the metrics counters and the
// optional audit ledger; rejections only feed metrics.
func finishIssuance(deps *AppDeps, w http.ResponseWriter, r *http.Request, request policy.Request) {
	now := time.Now()

	cred, rejection := deps.Engine.Decide(request, now)
	if rejection != nil {
		metrics.ObserveRejection(rejection.Code)
		resp.RespondError(w, r, rejection)
		return
	}

	metrics.ObserveIssued(string(cred.Kind))

	deps.Ledger.Record(ledger.Entry{
		Kind:      string(cred.Kind),
		Channel:   cred.Channel,
		UID:       cred.UID,
		Account:   cred.Account,
		IssuedAt:  now,
		ExpiresAt: time.Unix(cred.ExpiresAt, 0),
		RemoteIP:  logx.AnonymizeIP(r.RemoteAddr),
	})

	resp.RespondSuccess(w, r, tokenResponse{
		Type:      string(cred.Kind),
		Token:     cred.Token,
		UID:       cred.UID,
		Account:   cred.Account,
		ExpiresIn: cred.ExpiresIn,
		ExpiresAt: cred.ExpiresAt,
	})
}
