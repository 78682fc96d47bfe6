// import.go — команда import xlsx.
package cli

import (
	"fmt"
	"os"

	"github.com/go-extras/cobraflags"
	"github.com/spf13/cobra"

	"github.com/bigkaa/expedientes/internal/importer"
	"github.com/bigkaa/expedientes/internal/repository"
)

const actorFlag = "actor"

func newImportCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "import",
		Short: "Importación de datos existentes",
	}

	flags := map[string]cobraflags.Flag{
		actorFlag: &cobraflags.StringFlag{
			Name:  actorFlag,
			Usage: "Valor de \"modificado por\" de los registros importados",
		},
	}

	var dryRun bool
	xlsx := &cobra.Command{
		Use:   "xlsx FILE",
		Short: "Importa expedientes desde un libro Excel (una hoja por expediente)",
		Long: `Importa expedientes desde un libro Excel: una hoja por expediente,
con la tabla principal (Expte / AÑO / ...) y el bloque REGISTRO de gestiones.
Las hojas INGRESO, PLANILLA, 1, Hoja 3 y Hoja 4 se omiten.
Con --dry-run solo se informan los totales, sin conectarse a la base.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			f, err := os.Open(args[0])
			if err != nil {
				return fmt.Errorf("ошибка открытия файла: %w", err)
			}
			defer f.Close() //nolint:errcheck // только чтение

			wb, err := importer.ReadWorkbook(f)
			if err != nil {
				return err
			}

			logger := newLogger(cmd)
			var tx importer.TxManager
			if !dryRun {
				pool, err := connect(cmd.Context(), logger)
				if err != nil {
					return err
				}
				defer pool.Close()
				tx = repository.NewTxRunner(pool)
			}

			sum, err := importer.New(tx, flags[actorFlag].GetString(), logger).Run(cmd.Context(), wb, dryRun)
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "expedientes: %d\n", sum.CaseFiles)
			fmt.Fprintf(out, "gestiones: %d\n", sum.HistoryEntries)
			fmt.Fprintf(out, "hojas omitidas: %d\n", sum.Skipped)
			fmt.Fprintf(out, "advertencias: %d\n", sum.Warnings)
			return err
		},
	}
	xlsx.Flags().BoolVar(&dryRun, "dry-run", false, "Solo lee el libro e informa los totales")
	cobraflags.RegisterMap(xlsx, flags)

	cmd.AddCommand(xlsx)
	return cmd
}
