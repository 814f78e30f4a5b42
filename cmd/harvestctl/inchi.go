package main

import (
	"fmt"
	"os"
	"strconv"

	"github.com/spf13/cobra"

	"massbank-harvester/chem"
)

var inchiCmd = &cobra.Command{
	Use:         "inchi",
	Short:       "InChI utilities",
	Annotations: map[string]string{"offline": "true"},
}

var inchiMassCmd = &cobra.Command{
	Use:         "mass <inchi>",
	Short:       "Print formula, exact mass and molecular weight",
	Args:        cobra.ExactArgs(1),
	Annotations: map[string]string{"offline": "true"},
	RunE: func(cmd *cobra.Command, args []string) error {
		mol, err := chem.ParseInChI(args[0])
		if err != nil {
			return err
		}
		out := cmd.OutOrStdout()
		fmt.Fprintf(out, "formula:          %s\n", mol.Formula)
		fmt.Fprintf(out, "exact mass:       %s\n", strconv.FormatFloat(mol.ExactMass(), 'f', 6, 64))
		fmt.Fprintf(out, "molecular weight: %s\n", strconv.FormatFloat(mol.MolecularWeight(), 'f', 4, 64))
		return nil
	},
}

var renderOut string

var inchiRenderCmd = &cobra.Command{
	Use:         "render <inchi>",
	Short:       "Render a structure image as PNG",
	Args:        cobra.ExactArgs(1),
	Annotations: map[string]string{"offline": "true"},
	RunE: func(cmd *cobra.Command, args []string) error {
		mol, err := chem.ParseInChI(args[0])
		if err != nil {
			return err
		}
		if renderOut == "-" {
			return chem.NewDepicter().Render(mol, os.Stdout)
		}
		return chem.NewDepicter().RenderFile(mol, renderOut)
	},
}

func init() {
	inchiRenderCmd.Flags().StringVarP(&renderOut, "out", "o", "molecule.png", "output file, - for stdout")
	inchiCmd.AddCommand(inchiMassCmd, inchiRenderCmd)
}
