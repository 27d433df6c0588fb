package policy

import (
	"fmt"
	"regexp"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"peertoken/internal/app/signer"
	"peertoken/internal/configs"
	"peertoken/internal/pkg/errs"
	"peertoken/internal/pkg/randx"
)

// fakeSigner records the last signing call and can be told to fail.
type fakeSigner struct {
	mu       sync.Mutex
	fail     bool
	lastRole signer.Role
	lastTTL  uint32
	calls    int
}

func (f *fakeSigner) note(role signer.Role, ttl uint32) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	f.lastRole = role
	f.lastTTL = ttl
	if f.fail {
		return fmt.Errorf("signing backend unavailable")
	}
	return nil
}

func (f *fakeSigner) RTCToken(channel string, uid uint32, role signer.Role, ttl uint32) (string, error) {
	if err := f.note(role, ttl); err != nil {
		return "", err
	}
	return fmt.Sprintf("rtc-%s-%d-%d", channel, uid, f.calls), nil
}

func (f *fakeSigner) RTCTokenWithAccount(channel, account string, role signer.Role, ttl uint32) (string, error) {
	if err := f.note(role, ttl); err != nil {
		return "", err
	}
	return fmt.Sprintf("rtc-%s-%s", channel, account), nil
}

func (f *fakeSigner) RTMToken(account string, ttl uint32) (string, error) {
	if err := f.note(signer.RolePublisher, ttl); err != nil {
		return "", err
	}
	return fmt.Sprintf("rtm-%s", account), nil
}

func testConfig() *configs.AppConfig {
	return &configs.AppConfig{
		Environment:     "production",
		AppID:           "test-app-id",
		AppCertificate:  "test-certificate",
		TokenTTLSeconds: 120,
		ProdOnly:        true,
		ChannelPattern:  regexp.MustCompile(configs.DefaultChannelPattern),
	}
}

func newTestEngine(t *testing.T, cfg *configs.AppConfig) (*Engine, *fakeSigner) {
	t.Helper()
	fs := &fakeSigner{}
	return NewEngine(cfg, fs), fs
}

func TestDecide_EnvironmentGateRunsFirst(t *testing.T) {
	cfg := testConfig()
	cfg.Environment = "staging"
	cfg.RoomPassword = "secret"
	eng, fs := newTestEngine(t, cfg)

	// Everything else about this request is also wrong; the environment gate
	// must still be the reason reported.
	cred, rej := eng.Decide(Request{Kind: KindRTC, Channel: "x"}, time.Now())

	require.Nil(t, cred)
	require.NotNil(t, rej)
	assert.Equal(t, errs.CodeForbiddenEnv, rej.Code)
	assert.Equal(t, 0, fs.calls)
}

func TestDecide_ProdOnlyDisabledAllowsDevelopment(t *testing.T) {
	cfg := testConfig()
	cfg.Environment = "development"
	cfg.ProdOnly = false
	eng, _ := newTestEngine(t, cfg)

	cred, rej := eng.Decide(Request{Kind: KindRTC, Channel: "demo-room"}, time.Now())

	require.Nil(t, rej)
	require.NotNil(t, cred)
}

func TestDecide_FailsClosedWithoutCredentials(t *testing.T) {
	for _, missing := range []string{"app_id", "certificate"} {
		cfg := testConfig()
		if missing == "app_id" {
			cfg.AppID = ""
		} else {
			cfg.AppCertificate = ""
		}
		eng, _ := newTestEngine(t, cfg)

		cred, rej := eng.Decide(Request{Kind: KindRTC, Channel: "demo-room"}, time.Now())

		require.Nil(t, cred, missing)
		require.NotNil(t, rej, missing)
		assert.Equal(t, errs.CodeServerNotConfigured, rej.Code, missing)
	}
}

func TestDecide_SharedSecretGate(t *testing.T) {
	cfg := testConfig()
	cfg.RoomPassword = "hunter2"
	eng, fs := newTestEngine(t, cfg)

	cases := []struct {
		name     string
		supplied string
	}{
		{"missing", ""},
		{"mismatched", "hunter3"},
		{"wrong_length", "h"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			// The channel is invalid too; the secret gate must win because it
			// is evaluated before any channel validation.
			cred, rej := eng.Decide(Request{Kind: KindRTC, Channel: "x", SuppliedSecret: tc.supplied}, time.Now())

			require.Nil(t, cred)
			require.NotNil(t, rej)
			assert.Equal(t, errs.CodeUnauthorized, rej.Code)
			assert.Equal(t, 0, fs.calls)
		})
	}

	cred, rej := eng.Decide(Request{Kind: KindRTC, Channel: "demo-room", SuppliedSecret: "hunter2"}, time.Now())
	require.Nil(t, rej)
	require.NotNil(t, cred)
}

func TestDecide_ChannelPattern(t *testing.T) {
	eng, _ := newTestEngine(t, testConfig())

	valid := []string{"abc", "demo-room", "a.b_c-d", "ABC123", strings.Repeat("x", 64)}
	for _, channel := range valid {
		cred, rej := eng.Decide(Request{Kind: KindRTC, Channel: channel}, time.Now())
		require.Nil(t, rej, "channel %q should be accepted", channel)
		require.NotNil(t, cred)
		assert.Equal(t, channel, cred.Channel)
	}

	invalid := []string{"", "a", "ab", "has space", "emoji☺", "slash/name", strings.Repeat("x", 65)}
	for _, channel := range invalid {
		cred, rej := eng.Decide(Request{Kind: KindRTC, Channel: channel}, time.Now())
		require.Nil(t, cred, "channel %q should be rejected", channel)
		require.NotNil(t, rej)
		assert.Equal(t, errs.CodeBadChannel, rej.Code)
	}
}

func TestDecide_RTCUidAlwaysInRange(t *testing.T) {
	eng, _ := newTestEngine(t, testConfig())

	for i := 0; i < 200; i++ {
		cred, rej := eng.Decide(Request{Kind: KindRTC, Channel: "demo-room"}, time.Now())
		require.Nil(t, rej)
		assert.GreaterOrEqual(t, cred.UID, randx.MinRTCUid)
		assert.LessOrEqual(t, cred.UID, randx.MaxRTCUid)
		assert.Empty(t, cred.Account)
	}
}

func TestDecide_RTMAccountsServerGeneratedAndDistinct(t *testing.T) {
	eng, _ := newTestEngine(t, testConfig())

	seen := make(map[string]bool)
	for i := 0; i < 100; i++ {
		cred, rej := eng.Decide(Request{Kind: KindRTM, ClientUID: "attacker-chosen"}, time.Now())
		require.Nil(t, rej)
		require.NotEmpty(t, cred.Account)
		assert.NotEqual(t, "attacker-chosen", cred.Account)
		assert.Zero(t, cred.UID)
		assert.Empty(t, cred.Channel)
		assert.False(t, seen[cred.Account], "rtm account %q repeated", cred.Account)
		seen[cred.Account] = true
	}
}

func TestDecide_ExpiryIsExactlyConfiguredTTL(t *testing.T) {
	cfg := testConfig()
	cfg.TokenTTLSeconds = 3600
	eng, fs := newTestEngine(t, cfg)

	now := time.Unix(1_700_000_000, 0)

	for _, kind := range []Kind{KindRTC, KindRTM} {
		cred, rej := eng.Decide(Request{Kind: kind, Channel: "demo-room"}, now)
		require.Nil(t, rej)
		assert.Equal(t, 3600, cred.ExpiresIn)
		assert.Equal(t, now.Unix()+3600, cred.ExpiresAt)
		assert.Equal(t, uint32(3600), fs.lastTTL)
	}
}

func TestDecide_RolePinnedToPublisher(t *testing.T) {
	eng, fs := newTestEngine(t, testConfig())

	_, rej := eng.Decide(Request{Kind: KindRTC, Channel: "demo-room", ClientRole: "audience"}, time.Now())
	require.Nil(t, rej)
	assert.Equal(t, signer.RolePublisher, fs.lastRole)
}

func TestDecide_ClientRoleHonoredOnlyWithToggle(t *testing.T) {
	cfg := testConfig()
	cfg.AllowClientRole = true
	eng, fs := newTestEngine(t, cfg)

	_, rej := eng.Decide(Request{Kind: KindRTC, Channel: "demo-room", ClientRole: "audience"}, time.Now())
	require.Nil(t, rej)
	assert.Equal(t, signer.RoleSubscriber, fs.lastRole)

	_, rej = eng.Decide(Request{Kind: KindRTC, Channel: "demo-room", ClientRole: "publisher"}, time.Now())
	require.Nil(t, rej)
	assert.Equal(t, signer.RolePublisher, fs.lastRole)
}

func TestDecide_ClientUIDIgnoredByDefault(t *testing.T) {
	eng, _ := newTestEngine(t, testConfig())

	cred, rej := eng.Decide(Request{Kind: KindRTC, Channel: "demo-room", ClientUID: "12345"}, time.Now())
	require.Nil(t, rej)
	assert.NotZero(t, cred.UID)
	assert.Empty(t, cred.Account)
}

func TestDecide_ClientUIDHonoredWithToggle(t *testing.T) {
	cfg := testConfig()
	cfg.AllowClientUID = true
	eng, _ := newTestEngine(t, cfg)

	cred, rej := eng.Decide(Request{Kind: KindRTC, Channel: "demo-room", ClientUID: "amir"}, time.Now())
	require.Nil(t, rej)
	assert.Zero(t, cred.UID)
	assert.Equal(t, "amir", cred.Account)
}

func TestDecide_QueryModeRequiresChannelAndUID(t *testing.T) {
	cfg := testConfig()
	cfg.AllowClientUID = true
	eng, _ := newTestEngine(t, cfg)

	for _, req := range []Request{
		{Kind: KindRTC, QueryMode: true, Channel: "demo-room"},
		{Kind: KindRTC, QueryMode: true, ClientUID: "amir"},
		{Kind: KindRTC, QueryMode: true},
	} {
		cred, rej := eng.Decide(req, time.Now())
		require.Nil(t, cred)
		require.NotNil(t, rej)
		assert.Equal(t, errs.CodeChannelAndUIDRequired, rej.Code)
	}
}

func TestDecide_UnknownKindRejected(t *testing.T) {
	eng, _ := newTestEngine(t, testConfig())

	cred, rej := eng.Decide(Request{Kind: "webrtc", Channel: "demo-room"}, time.Now())
	require.Nil(t, cred)
	require.NotNil(t, rej)
	assert.Equal(t, errs.CodeInvalidInput, rej.Code)
}

func TestDecide_SignerFailureIsOpaque(t *testing.T) {
	eng, fs := newTestEngine(t, testConfig())
	fs.fail = true

	for _, kind := range []Kind{KindRTC, KindRTM} {
		cred, rej := eng.Decide(Request{Kind: kind, Channel: "demo-room"}, time.Now())
		require.Nil(t, cred)
		require.NotNil(t, rej)
		assert.Equal(t, errs.CodeTokenGenerationFailed, rej.Code)
	}
}

func TestDecide_IdenticalInputsShareExpiryButNotIdentity(t *testing.T) {
	eng, _ := newTestEngine(t, testConfig())

	now := time.Unix(1_700_000_000, 0)
	req := Request{Kind: KindRTC, Channel: "demo-room"}

	first, rej := eng.Decide(req, now)
	require.Nil(t, rej)
	second, rej := eng.Decide(req, now)
	require.Nil(t, rej)

	assert.Equal(t, first.ExpiresAt, second.ExpiresAt)
	assert.Equal(t, first.ExpiresIn, second.ExpiresIn)
	assert.Equal(t, first.Channel, second.Channel)
	assert.NotEqual(t, first.Token, second.Token)
	assert.NotEqual(t, first.UID, second.UID)
}
