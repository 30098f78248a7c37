// Package cmd - metric formula commands
package cmd

import (
	"fmt"

	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"

	"saas-benchmark/core/formulas"
)

// metricsCmd groups the formula commands
var metricsCmd = &cobra.Command{
	Use:   "metrics",
	Short: "Compute individual SaaS metrics",
	Run: func(cmd *cobra.Command, args []string) {
		cmd.Help()
	},
}

var (
	ndrStartingARR  string
	ndrExpansions   string
	ndrContractions string
	ndrChurn        string

	magicNetNewARR string
	magicSpend     string

	paybackCAC    string
	paybackARPA   string
	paybackMargin string
)

var ndrCmd = &cobra.Command{
	Use:   "ndr",
	Short: "Compute Net Dollar Retention",
	Long: `Compute Net Dollar Retention as a percentage of starting ARR.

Example:
  saas-benchmark metrics ndr --starting-arr 1000000 --expansions 200000 --contractions 50000 --churn 100000`,
	RunE: func(cmd *cobra.Command, args []string) error {
		values, err := parseDecimals(map[string]string{
			"starting-arr": ndrStartingARR,
			"expansions":   ndrExpansions,
			"contractions": ndrContractions,
			"churn":        ndrChurn,
		})
		if err != nil {
			return err
		}

		result, err := formulas.NetDollarRetention(
			values["starting-arr"], values["expansions"], values["contractions"], values["churn"])
		if err != nil {
			return err
		}
		fmt.Printf("NDR: %s%%\n", result.String())
		return nil
	},
}

var magicNumberCmd = &cobra.Command{
	Use:   "magic-number",
	Short: "Compute the SaaS Magic Number",
	RunE: func(cmd *cobra.Command, args []string) error {
		values, err := parseDecimals(map[string]string{
			"net-new-arr": magicNetNewARR,
			"spend":       magicSpend,
		})
		if err != nil {
			return err
		}

		result, err := formulas.MagicNumber(values["net-new-arr"], values["spend"])
		if err != nil {
			return err
		}
		fmt.Printf("Magic Number: %s\n", result.String())
		return nil
	},
}

var cacPaybackCmd = &cobra.Command{
	Use:   "cac-payback",
	Short: "Compute CAC payback in months",
	RunE: func(cmd *cobra.Command, args []string) error {
		values, err := parseDecimals(map[string]string{
			"cac":          paybackCAC,
			"arpa":         paybackARPA,
			"gross-margin": paybackMargin,
		})
		if err != nil {
			return err
		}

		result, err := formulas.CACPayback(values["cac"], values["arpa"], values["gross-margin"])
		if err != nil {
			return err
		}
		fmt.Printf("CAC Payback: %s months\n", result.String())
		return nil
	},
}

func init() {
	ndrCmd.Flags().StringVar(&ndrStartingARR, "starting-arr", "", "ARR at period start")
	ndrCmd.Flags().StringVar(&ndrExpansions, "expansions", "0", "expansion revenue")
	ndrCmd.Flags().StringVar(&ndrContractions, "contractions", "0", "contraction revenue")
	ndrCmd.Flags().StringVar(&ndrChurn, "churn", "0", "churned revenue")
	ndrCmd.MarkFlagRequired("starting-arr")

	magicNumberCmd.Flags().StringVar(&magicNetNewARR, "net-new-arr", "", "net new ARR for the quarter")
	magicNumberCmd.Flags().StringVar(&magicSpend, "spend", "", "prior quarter sales and marketing spend")
	magicNumberCmd.MarkFlagRequired("net-new-arr")
	magicNumberCmd.MarkFlagRequired("spend")

	cacPaybackCmd.Flags().StringVar(&paybackCAC, "cac", "", "customer acquisition cost")
	cacPaybackCmd.Flags().StringVar(&paybackARPA, "arpa", "", "average revenue per account per month")
	cacPaybackCmd.Flags().StringVar(&paybackMargin, "gross-margin", "", "gross margin as a fraction (0, 1]")
	cacPaybackCmd.MarkFlagRequired("cac")
	cacPaybackCmd.MarkFlagRequired("arpa")
	cacPaybackCmd.MarkFlagRequired("gross-margin")

	metricsCmd.AddCommand(ndrCmd)
	metricsCmd.AddCommand(magicNumberCmd)
	metricsCmd.AddCommand(cacPaybackCmd)
}

func parseDecimals(raw map[string]string) (map[string]decimal.Decimal, error) {
	parsed := make(map[string]decimal.Decimal, len(raw))
	for name, s := range raw {
		d, err := decimal.NewFromString(s)
		if err != nil {
			return nil, fmt.Errorf("invalid value for --%s: %q", name, s)
		}
		parsed[name] = d
	}
	return parsed, nil
}
