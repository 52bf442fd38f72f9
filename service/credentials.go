package service

import (
	"fmt"

	"marelle-logistics/config"
)

// ResolveCredentials selects the merchant contract for one request.
//
// Production always uses the single production contract. Stage walks an
// ordered candidate list — (type+mode)-specific, then type-specific, then the
// stage default — and each of merchant ID, hash key and hash IV falls back
// along that chain independently, because sandbox test stores are often
// provisioned with partial overrides.
func ResolveCredentials(cfg config.ECPayConfig, env Environment, logisticsType LogisticsType, mode Mode) (config.CredentialSet, error) {
	var candidates []config.CredentialSet
	if env == EnvProduction {
		candidates = []config.CredentialSet{cfg.Production}
	} else {
		candidates = stageCandidates(cfg.Stage, logisticsType, mode)
	}

	resolved := config.CredentialSet{
		MerchantID: firstNonEmpty(pick(candidates, func(c config.CredentialSet) string { return c.MerchantID })...),
		HashKey:    firstNonEmpty(pick(candidates, func(c config.CredentialSet) string { return c.HashKey })...),
		HashIV:     firstNonEmpty(pick(candidates, func(c config.CredentialSet) string { return c.HashIV })...),
	}

	if resolved.MerchantID == "" || resolved.HashKey == "" || resolved.HashIV == "" {
		return config.CredentialSet{}, fmt.Errorf("incomplete ecpay credentials for %s/%s/%s", env, logisticsType, mode)
	}
	return resolved, nil
}

func stageCandidates(stage config.StageCredentials, logisticsType LogisticsType, mode Mode) []config.CredentialSet {
	switch logisticsType {
	case TypeCVS:
		if mode == ModeC2C {
			return []config.CredentialSet{stage.CVSC2C, stage.CVS, stage.Default}
		}
		return []config.CredentialSet{stage.CVS, stage.Default}
	case TypeHome:
		return []config.CredentialSet{stage.Home, stage.Default}
	default:
		return []config.CredentialSet{stage.Default}
	}
}

// ResolveSender fills blank sender fields from the per-type identity first,
// then the generic one. Caller-supplied fields always win.
func ResolveSender(cfg config.SenderConfig, logisticsType LogisticsType, caller Contact) Contact {
	var typed config.SenderIdentity
	switch logisticsType {
	case TypeCVS:
		typed = cfg.CVS
	case TypeHome:
		typed = cfg.Home
	}

	return Contact{
		Name:      firstNonEmpty(caller.Name, typed.Name, cfg.Default.Name),
		Phone:     firstNonEmpty(caller.Phone, typed.Phone, cfg.Default.Phone),
		CellPhone: firstNonEmpty(caller.CellPhone, typed.CellPhone, cfg.Default.CellPhone),
		ZipCode:   firstNonEmpty(caller.ZipCode, typed.ZipCode, cfg.Default.ZipCode),
		Address:   firstNonEmpty(caller.Address, typed.Address, cfg.Default.Address),
		StoreID:   caller.StoreID,
	}
}

func pick(sets []config.CredentialSet, field func(config.CredentialSet) string) []string {
	values := make([]string, 0, len(sets))
	for _, s := range sets {
		values = append(values, field(s))
	}
	return values
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
