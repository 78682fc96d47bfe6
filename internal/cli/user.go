// user.go — команда user add.
package cli

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/go-extras/cobraflags"
	"github.com/spf13/cobra"

	"github.com/bigkaa/expedientes/internal/repository"
	"github.com/bigkaa/expedientes/internal/service"
)

const (
	emailFlag    = "email"
	nameFlag     = "name"
	passwordFlag = "password"
)

func newUserCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "user",
		Short: "Usuarios del sistema",
	}

	flags := map[string]cobraflags.Flag{
		emailFlag: &cobraflags.StringFlag{
			Name:  emailFlag,
			Usage: "Email del usuario (login)",
		},
		nameFlag: &cobraflags.StringFlag{
			Name:  nameFlag,
			Usage: "Nombre para mostrar",
		},
		passwordFlag: &cobraflags.StringFlag{
			Name:  passwordFlag,
			Usage: "Contraseña; si se omite se lee de la entrada estándar",
		},
	}

	add := &cobra.Command{
		Use:   "add",
		Short: "Crea un usuario activo",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			email := strings.TrimSpace(flags[emailFlag].GetString())
			if email == "" {
				return errors.New("--email es obligatorio")
			}

			password := flags[passwordFlag].GetString()
			if password == "" {
				fmt.Fprint(cmd.ErrOrStderr(), "Contraseña: ")
				var err error
				if password, err = readPassword(cmd.InOrStdin()); err != nil {
					return err
				}
			}

			logger := newLogger(cmd)
			pool, err := connect(cmd.Context(), logger)
			if err != nil {
				return err
			}
			defer pool.Close()

			users := service.NewUserService(repository.NewUserRepository(pool), logger)
			u, err := users.Create(cmd.Context(), email, flags[nameFlag].GetString(), password)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "usuario %s creado (%s)\n", u.Email, u.ID)
			return nil
		},
	}
	cobraflags.RegisterMap(add, flags)

	cmd.AddCommand(add)
	return cmd
}

// readPassword читает первую строку r без перевода строки.
func readPassword(r io.Reader) (string, error) {
	sc := bufio.NewScanner(r)
	if !sc.Scan() {
		if err := sc.Err(); err != nil {
			return "", fmt.Errorf("ошибка чтения пароля: %w", err)
		}
		return "", errors.New("contraseña vacía")
	}
	password := strings.TrimRight(sc.Text(), "\r")
	if password == "" {
		return "", errors.New("contraseña vacía")
	}
	return password, nil
}
