package deploy

import (
	"github.com/sbt-shop/contract-deployer/internal/flags"
	"github.com/spf13/viper"
)

var (
	stringFlags = []flags.Def[string]{
		{Name: "confirmation-timeout", ViperKey: "deploy.confirmation-timeout", DefaultValue: "", Description: "How long to wait for the creation transaction to be mined, e.g. 90s"},
	}

	boolFlags = []flags.Def[bool]{
		{Name: "wait", ViperKey: "deploy.wait-for-confirmation", DefaultValue: false, Description: "Wait until the creation transaction is mined"},
	}
)

func init() {
	flags.MustDeclare(viper.GetViper(), CMD.Flags(), stringFlags)
	flags.MustDeclare(viper.GetViper(), CMD.Flags(), boolFlags)
}
