package service

import (
	"testing"

	"marelle-logistics/config"
)

func TestResolveCredentials_StageFallsBackToDefault(t *testing.T) {
	cfg := config.ECPayConfig{
		Stage: config.StageCredentials{
			Default: config.CredentialSet{MerchantID: "2000132", HashKey: "k", HashIV: "v"},
		},
	}

	creds, err := ResolveCredentials(cfg, EnvStage, TypeCVS, ModeC2C)
	if err != nil {
		t.Fatalf("expected fallback to stage default, got error: %v", err)
	}
	if creds.MerchantID != "2000132" {
		t.Fatalf("expected default merchant id, got %q", creds.MerchantID)
	}
}

func TestResolveCredentials_TypeOverrideWins(t *testing.T) {
	cfg := config.ECPayConfig{
		Stage: config.StageCredentials{
			Default: config.CredentialSet{MerchantID: "2000132", HashKey: "k", HashIV: "v"},
			CVS:     config.CredentialSet{MerchantID: "2000933"},
		},
	}

	creds, err := ResolveCredentials(cfg, EnvStage, TypeCVS, ModeB2C)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if creds.MerchantID != "2000933" {
		t.Fatalf("expected CVS override to win, got %q", creds.MerchantID)
	}
	// Fields the override omits still come from the default tier.
	if creds.HashKey != "k" || creds.HashIV != "v" {
		t.Fatalf("expected secrets from default tier, got %+v", creds)
	}
}

func TestResolveCredentials_ModeOverrideWinsOverType(t *testing.T) {
	cfg := config.ECPayConfig{
		Stage: config.StageCredentials{
			Default: config.CredentialSet{MerchantID: "2000132", HashKey: "k", HashIV: "v"},
			CVS:     config.CredentialSet{MerchantID: "2000933"},
			CVSC2C:  config.CredentialSet{MerchantID: "2000934"},
		},
	}

	creds, err := ResolveCredentials(cfg, EnvStage, TypeCVS, ModeC2C)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if creds.MerchantID != "2000934" {
		t.Fatalf("expected C2C override to win, got %q", creds.MerchantID)
	}
}

func TestResolveCredentials_ProductionIgnoresStageOverrides(t *testing.T) {
	cfg := config.ECPayConfig{
		Production: config.CredentialSet{MerchantID: "3002607", HashKey: "pk", HashIV: "pv"},
		Stage: config.StageCredentials{
			CVS: config.CredentialSet{MerchantID: "2000933", HashKey: "k", HashIV: "v"},
		},
	}

	creds, err := ResolveCredentials(cfg, EnvProduction, TypeCVS, ModeB2C)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if creds.MerchantID != "3002607" {
		t.Fatalf("expected unified production contract, got %q", creds.MerchantID)
	}
}

func TestResolveCredentials_IncompleteIsError(t *testing.T) {
	cfg := config.ECPayConfig{
		Stage: config.StageCredentials{
			Default: config.CredentialSet{MerchantID: "2000132", HashKey: "k"},
		},
	}

	if _, err := ResolveCredentials(cfg, EnvStage, TypeHome, ModeB2C); err == nil {
		t.Fatalf("expected error when hash IV is missing after fallback")
	}
}

func TestResolveSender_CallerFieldsWin(t *testing.T) {
	cfg := config.SenderConfig{
		Default: config.SenderIdentity{Name: "Marelle", Phone: "021234567", Address: "Default Rd. 1"},
		Home:    config.SenderIdentity{Name: "Marelle Warehouse"},
	}

	sender := ResolveSender(cfg, TypeHome, Contact{Name: "Alice"})
	if sender.Name != "Alice" {
		t.Fatalf("expected caller name to win, got %q", sender.Name)
	}
	if sender.Phone != "021234567" {
		t.Fatalf("expected generic phone fallback, got %q", sender.Phone)
	}
}

func TestResolveSender_TypeIdentityBeforeGeneric(t *testing.T) {
	cfg := config.SenderConfig{
		Default: config.SenderIdentity{Name: "Marelle"},
		CVS:     config.SenderIdentity{Name: "Marelle CVS Desk"},
	}

	sender := ResolveSender(cfg, TypeCVS, Contact{})
	if sender.Name != "Marelle CVS Desk" {
		t.Fatalf("expected per-type sender identity, got %q", sender.Name)
	}
}
