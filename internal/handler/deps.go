package handler

import (
	"peertoken/internal/app/ledger"
	"peertoken/internal/app/policy"
	"peertoken/internal/configs"
)

// AppDeps bundles the collaborators every handler needs.
type AppDeps struct {
	Config *configs.AppConfig
	Engine *policy.Engine
	Ledger ledger.Ledger
}
