package config

import (
	"fmt"
	"strings"

	"github.com/spf13/viper"
)

// CredentialSet is one ECPay merchant contract: the merchant ID plus the
// HashKey/HashIV pair used to sign requests.
type CredentialSet struct {
	MerchantID string
	HashKey    string
	HashIV     string
}

// SenderIdentity is the default sender contact applied to fields the caller
// left blank.
type SenderIdentity struct {
	Name      string
	Phone     string
	CellPhone string
	ZipCode   string
	Address   string
}

// StageCredentials carries the stage-only overrides: sandbox environments
// often provision distinct test stores per logistics sub-type.
type StageCredentials struct {
	Default CredentialSet
	CVS     CredentialSet
	CVSC2C  CredentialSet
	Home    CredentialSet
}

type ECPayConfig struct {
	ProductionBaseURL string
	StageBaseURL      string
	Production        CredentialSet
	Stage             StageCredentials

	// LogisticsSubType defaults per (type, mode) when the caller sends none.
	CVSSubType    string
	CVSC2CSubType string
	HomeSubType   string

	ServerReplyURL string
	PlatformID     string
}

type SenderConfig struct {
	Default SenderIdentity
	CVS     SenderIdentity
	Home    SenderIdentity
}

type Config struct {
	Port   string
	DBUser string
	DBPass string
	DBHost string
	DBName string
	ECPay  ECPayConfig
	Sender SenderConfig
}

func LoadConfig() Config {
	v := viper.New()
	v.SetConfigName("config")
	v.SetConfigType("json")
	v.AddConfigPath(".")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	setDefaults(v)
	_ = v.ReadInConfig()

	return Config{
		Port:   v.GetString("server.port"),
		DBUser: v.GetString("database.user"),
		DBPass: v.GetString("database.pass"),
		DBHost: v.GetString("database.host"),
		DBName: v.GetString("database.name"),
		ECPay: ECPayConfig{
			ProductionBaseURL: v.GetString("ecpay.production.base_url"),
			StageBaseURL:      v.GetString("ecpay.stage.base_url"),
			Production:        credentialSet(v, "ecpay.production"),
			Stage: StageCredentials{
				Default: credentialSet(v, "ecpay.stage"),
				CVS:     credentialSet(v, "ecpay.stage.cvs"),
				CVSC2C:  credentialSet(v, "ecpay.stage.cvs_c2c"),
				Home:    credentialSet(v, "ecpay.stage.home"),
			},
			CVSSubType:     v.GetString("ecpay.cvs.sub_type"),
			CVSC2CSubType:  v.GetString("ecpay.cvs.sub_type_c2c"),
			HomeSubType:    v.GetString("ecpay.home.sub_type"),
			ServerReplyURL: v.GetString("ecpay.server_reply_url"),
			PlatformID:     v.GetString("ecpay.platform_id"),
		},
		Sender: SenderConfig{
			Default: senderIdentity(v, "sender"),
			CVS:     senderIdentity(v, "sender.cvs"),
			Home:    senderIdentity(v, "sender.home"),
		},
	}
}

func credentialSet(v *viper.Viper, prefix string) CredentialSet {
	return CredentialSet{
		MerchantID: v.GetString(prefix + ".merchant_id"),
		HashKey:    v.GetString(prefix + ".hash_key"),
		HashIV:     v.GetString(prefix + ".hash_iv"),
	}
}

func senderIdentity(v *viper.Viper, prefix string) SenderIdentity {
	return SenderIdentity{
		Name:      v.GetString(prefix + ".name"),
		Phone:     v.GetString(prefix + ".phone"),
		CellPhone: v.GetString(prefix + ".cellphone"),
		ZipCode:   v.GetString(prefix + ".zip_code"),
		Address:   v.GetString(prefix + ".address"),
	}
}

// DSN builds the Supabase/Postgres connection string.
func (c Config) DSN() string {
	return fmt.Sprintf(
		"postgres://%s:%s@%s/%s?sslmode=require",
		c.DBUser,
		c.DBPass,
		c.DBHost,
		c.DBName,
	)
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.port", "50060")
	v.SetDefault("ecpay.production.base_url", "https://logistics.ecpay.com.tw")
	v.SetDefault("ecpay.stage.base_url", "https://logistics-stage.ecpay.com.tw")
	v.SetDefault("ecpay.cvs.sub_type", "UNIMART")
	v.SetDefault("ecpay.cvs.sub_type_c2c", "UNIMARTC2C")
	v.SetDefault("ecpay.home.sub_type", "TCAT")
}
