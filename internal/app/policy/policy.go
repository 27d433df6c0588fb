/*
Package policy implements the credential issuance decision core.

Given one transient issuance request, the immutable application configuration, and
the current time, the engine either produces a signed credential or a typed
rejection. The only side effect is the call into the signing primitive; the engine
holds no mutable state, keeps no record of what it minted, and is safe to call
from any number of goroutines.
*/
package policy

import (
	"crypto/subtle"
	"time"

	"peertoken/internal/app/signer"
	"peertoken/internal/configs"
	"peertoken/internal/pkg/errs"
	"peertoken/internal/pkg/logx"
	"peertoken/internal/pkg/randx"
)

// Kind selects which of the platform's two credential formats is requested.
type Kind string

const (
	// KindRTC is a channel credential for audio/video calling.
	KindRTC Kind = "rtc"

	// KindRTM is a login credential for the messaging service.
	KindRTM Kind = "rtm"
)

// Request is one issuance request. It lives for a single call to Decide and is
// never persisted. All fields come from untrusted client input.
type Request struct {
	// Kind is the requested credential kind, already lower-cased by the caller.
	Kind Kind

	// Channel is the RTC channel name. Ignored for RTM.
	Channel string

	// SuppliedSecret is the shared room password presented by the caller,
	// from the x-room-password header or the body/query fallback field.
	SuppliedSecret string

	// ClientUID is a caller-chosen identity. Only honored when the
	// client-uid toggle is enabled; the strict policy ignores it entirely.
	ClientUID string

	// ClientRole is a caller-chosen role name ("publisher" or "audience").
	// Only honored when the client-role toggle is enabled.
	ClientRole string

	// QueryMode marks a request that arrived via the legacy query-string
	// shape, which carries its own required-field rule.
	QueryMode bool
}

// Credential is the successful outcome of a decision: an opaque signed token plus
// the policy-derived fields it is bound to. Produced once, immutable, and not
// tracked afterwards; expiry enforcement happens at the platform on use.
type Credential struct {
	Kind      Kind
	Token     string
	UID       uint32
	Account   string
	Channel   string
	ExpiresIn int
	ExpiresAt int64
}

// Engine evaluates issuance requests against the process-wide configuration.
type Engine struct {
	cfg  *configs.AppConfig
	sign signer.Signer
}

// NewEngine returns an Engine bound to the given configuration and signer.
func NewEngine(cfg *configs.AppConfig, sign signer.Signer) *Engine {
	return &Engine{cfg: cfg, sign: sign}
}

// Decide validates the request and either mints a credential or rejects it.
//
// Gates run in a fixed order and short-circuit on the first failure:
// environment, configuration completeness, shared secret, then kind-specific
// validation. The shared secret is checked before any channel or identity work
// because it is the cheapest, highest-priority reason to refuse a caller.
func (e *Engine) Decide(req Request, now time.Time) (*Credential, *errs.CustomError) {
	if e.cfg.ProdOnly && e.cfg.Environment != "production" {
		return nil, errs.NewError(errs.CodeForbiddenEnv)
	}

	if e.cfg.AppID == "" || e.cfg.AppCertificate == "" {
		return nil, errs.NewError(errs.CodeServerNotConfigured)
	}

	if e.cfg.RoomPassword != "" {
		if subtle.ConstantTimeCompare([]byte(req.SuppliedSecret), []byte(e.cfg.RoomPassword)) != 1 {
			return nil, errs.NewError(errs.CodeUnauthorized)
		}
	}

	switch req.Kind {
	case KindRTM:
		return e.decideRTM(now)
	case KindRTC:
		return e.decideRTC(req, now)
	default:
		return nil, errs.NewError(errs.CodeInvalidInput)
	}
}

// decideRTM mints a messaging credential. The account id is always
// server-generated; trusting a client-supplied id here would let any caller
// impersonate any chat participant.
func (e *Engine) decideRTM(now time.Time) (*Credential, *errs.CustomError) {
	account := randx.RTMAccount()

	token, err := e.sign.RTMToken(account, uint32(e.cfg.TokenTTLSeconds))
	if err != nil {
		logx.Error(err, "rtm signing failed", "account", account)
		return nil, errs.NewError(errs.CodeTokenGenerationFailed)
	}

	return e.credential(KindRTM, token, 0, account, "", now), nil
}

// decideRTC validates the channel, derives the identity and role, and mints a
// channel credential.
func (e *Engine) decideRTC(req Request, now time.Time) (*Credential, *errs.CustomError) {
	clientIdentity := e.cfg.AllowClientUID && req.ClientUID != ""

	// The legacy query shape requires the caller to name both channel and uid.
	if req.QueryMode && e.cfg.AllowClientUID && (req.Channel == "" || req.ClientUID == "") {
		return nil, errs.NewError(errs.CodeChannelAndUIDRequired)
	}

	if !e.cfg.ChannelPattern.MatchString(req.Channel) {
		return nil, errs.NewError(errs.CodeBadChannel)
	}

	// The role is pinned to publisher server-side. Untrusted clients never
	// choose their own permission level unless the deployment opted in.
	role := signer.RolePublisher
	if e.cfg.AllowClientRole && req.ClientRole == "audience" {
		role = signer.RoleSubscriber
	}

	ttl := uint32(e.cfg.TokenTTLSeconds)

	if clientIdentity {
		token, err := e.sign.RTCTokenWithAccount(req.Channel, req.ClientUID, role, ttl)
		if err != nil {
			logx.Error(err, "rtc signing failed", "channel", req.Channel)
			return nil, errs.NewError(errs.CodeTokenGenerationFailed)
		}
		return e.credential(KindRTC, token, 0, req.ClientUID, req.Channel, now), nil
	}

	uid, err := randx.RTCUid()
	if err != nil {
		logx.Error(err, "rtc uid generation failed")
		return nil, errs.NewError(errs.CodeTokenGenerationFailed)
	}

	token, err := e.sign.RTCToken(req.Channel, uid, role, ttl)
	if err != nil {
		logx.Error(err, "rtc signing failed", "channel", req.Channel)
		return nil, errs.NewError(errs.CodeTokenGenerationFailed)
	}

	return e.credential(KindRTC, token, uid, "", req.Channel, now), nil
}

// credential assembles the immutable issuance result. ExpiresAt is exactly
// now + TTL; the engine receives now by parameter so the arithmetic is
// reproducible under test.
func (e *Engine) credential(kind Kind, token string, uid uint32, account, channel string, now time.Time) *Credential {
	return &Credential{
		Kind:      kind,
		Token:     token,
		UID:       uid,
		Account:   account,
		Channel:   channel,
		ExpiresIn: e.cfg.TokenTTLSeconds,
		ExpiresAt: now.Unix() + int64(e.cfg.TokenTTLSeconds),
	}
}
