package report

type (
	Model struct {
		Deployment Deployment `yaml:"deployment"`
	}

	Deployment struct {
		Network     string  `yaml:"network"`
		Contract    string  `yaml:"contract"`
		Address     string  `yaml:"address"`
		Confirmed   bool    `yaml:"confirmed"`
		TxHash      string  `yaml:"tx-hash"`
		Deployer    string  `yaml:"deployer"`
		Nonce       uint64  `yaml:"nonce"`
		BlockNumber *uint64 `yaml:"block-number,omitempty"`
		Explorer    string  `yaml:"explorer,omitempty"`
	}
)
