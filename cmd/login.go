package cmd

import (
	"errors"
	"fmt"
	"os"

	"github.com/AlecAivazis/survey/v2"
	"github.com/evcc-io/ownerportal/core/storage"
	"github.com/evcc-io/ownerportal/util"
	"github.com/evcc-io/ownerportal/util/request"
	"github.com/evcc-io/ownerportal/vehicle/mitsubishi"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"
)

const (
	errAlreadyConfigured = "already_configured"
	errAuth              = "auth_error"
	errCertificate       = "ssl_error"
)

// loginCmd represents the login command
var loginCmd = &cobra.Command{
	Use:   "login",
	Short: "Verify owner portal credentials and create an account configuration",
	Run:   runLogin,
}

func init() {
	rootCmd.AddCommand(loginCmd)

	loginCmd.Flags().StringP("user", "u", "", "Owner portal user")
	loginCmd.Flags().StringP("password", "p", "", "Owner portal password")
	loginCmd.Flags().String("api", mitsubishi.DefaultAPI, "Owner portal api")
}

type loginResult struct {
	Accounts []account `yaml:"accounts"`
}

// login performs the login of the account and returns its configuration with uid and vehicles
func login(conf config, acc account, store mitsubishi.Store) (account, []mitsubishi.Vehicle, error) {
	if conf.configured(acc.User) {
		return acc, nil, errors.New(errAlreadyConfigured)
	}

	log := util.NewLogger("mitsubishi").Redact(acc.User, acc.Password)

	identity := mitsubishi.NewIdentity(log, acc.API, acc.User, acc.Password, store)
	if acc.insecure() {
		identity.Insecure()
	}

	if err := identity.Login(); err != nil {
		log.DEBUG.Printf("login: %v", err)
		if errors.Is(err, request.ErrCertificate) {
			return acc, nil, errors.New(errCertificate)
		}
		return acc, nil, errors.New(errAuth)
	}

	acc.UID = identity.UID()

	vehicles, err := mitsubishi.NewAPI(log, identity, acc.insecure()).Vehicles()
	if err != nil {
		return acc, nil, err
	}

	return acc, vehicles, nil
}

func prompt(acc *account) error {
	var qs []*survey.Question

	if acc.User == "" {
		qs = append(qs, &survey.Question{
			Name:     "user",
			Prompt:   &survey.Input{Message: "User"},
			Validate: survey.Required,
		})
	}

	if acc.Password == "" {
		qs = append(qs, &survey.Question{
			Name:     "password",
			Prompt:   &survey.Password{Message: "Password"},
			Validate: survey.Required,
		})
	}

	answers := struct {
		User     string `survey:"user"`
		Password string `survey:"password"`
	}{
		User:     acc.User,
		Password: acc.Password,
	}

	if err := survey.Ask(qs, &answers); err != nil {
		return err
	}

	acc.User, acc.Password = answers.User, answers.Password

	return nil
}

func runLogin(cmd *cobra.Command, args []string) {
	conf, err := loadConfigFile(cfgFile)
	if err != nil && cfgFile != "" {
		log.FATAL.Fatal(err)
	}

	var acc account
	acc.User, _ = cmd.Flags().GetString("user")
	acc.Password, _ = cmd.Flags().GetString("password")
	acc.API, _ = cmd.Flags().GetString("api")

	if err := prompt(&acc); err != nil {
		log.FATAL.Fatal(err)
	}

	var store mitsubishi.Store
	if err := configureEnvironment(conf); err == nil {
		store = storage.Account(acc.User)
	} else {
		log.WARN.Println(err)
	}

	acc, vehicles, err := login(conf, acc, store)
	if err != nil {
		fmt.Println(err)
		os.Exit(1)
	}

	for _, v := range vehicles {
		fmt.Printf("# %s: %s\n", v.VIN, v.DeviceName())
	}

	enc := yaml.NewEncoder(os.Stdout)
	enc.SetIndent(2)

	if err := enc.Encode(loginResult{Accounts: []account{acc}}); err != nil {
		log.FATAL.Fatal(err)
	}
}
