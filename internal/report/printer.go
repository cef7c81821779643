package report

import (
	"fmt"
	"io"
	"strings"

	"github.com/sbt-shop/contract-deployer/internal/deployer"
	"gopkg.in/yaml.v3"
)

type Format string

const (
	FormatText Format = "text"
	FormatYAML Format = "yaml"
)

type (
	// Messages customises the operator-facing text report.
	Messages struct {
		// Headline is printed before the address line when set.
		Headline string
		// Label names the contract in the address line, e.g. "SBT contract".
		Label string
	}

	Printer struct {
		out    io.Writer
		format Format
	}
)

func ParseFormat(value string) (Format, error) {
	switch Format(strings.ToLower(strings.TrimSpace(value))) {
	case "", FormatText:
		return FormatText, nil
	case FormatYAML:
		return FormatYAML, nil
	default:
		return "", fmt.Errorf("unknown output format %q, expected text or yaml", value)
	}
}

func NewPrinter(out io.Writer, format Format) *Printer {
	return &Printer{out: out, format: format}
}

// Print writes the deployment result to the console.
func (p *Printer) Print(network string, result deployer.Result, messages Messages) error {
	switch p.format {
	case FormatYAML:
		return p.printYAML(network, result)
	default:
		return p.printText(result, messages)
	}
}

func (p *Printer) printText(result deployer.Result, messages Messages) error {
	var sb strings.Builder

	if messages.Headline != "" {
		sb.WriteString(messages.Headline)
		sb.WriteString("\n")
	}

	label := messages.Label
	if label == "" {
		label = result.ContractName + " contract"
	}

	fmt.Fprintf(&sb, "%s address is %s.", label, result.ContractAddress.Hex())
	if result.ExplorerURL != "" {
		fmt.Fprintf(&sb, " You can verify on %s", result.ExplorerURL)
	}
	sb.WriteString("\n")

	if _, err := io.WriteString(p.out, sb.String()); err != nil {
		return fmt.Errorf("could not write report. Err: '%w'", err)
	}

	return nil
}

func (p *Printer) printYAML(network string, result deployer.Result) error {
	model := &Model{
		Deployment: Deployment{
			Network:   network,
			Contract:  result.ContractName,
			Address:   result.ContractAddress.Hex(),
			Confirmed: result.Confirmed,
			TxHash:    result.TxHash.Hex(),
			Deployer:  result.Deployer.Hex(),
			Nonce:     result.Nonce,
			Explorer:  result.ExplorerURL,
		},
	}
	if result.BlockNumber != nil {
		blockNumber := result.BlockNumber.Uint64()
		model.Deployment.BlockNumber = &blockNumber
	}

	data, err := yaml.Marshal(model)
	if err != nil {
		return fmt.Errorf("could not marshal report model. Err: '%w'", err)
	}

	if _, err := p.out.Write(data); err != nil {
		return fmt.Errorf("could not write report. Err: '%w'", err)
	}

	return nil
}
