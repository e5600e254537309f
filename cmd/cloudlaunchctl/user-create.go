package main

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/cloudlaunch/cloudlaunch-go/pkg/auth"
	"github.com/cloudlaunch/cloudlaunch-go/pkg/model"
	"github.com/cloudlaunch/cloudlaunch-go/pkg/server/store"
	gormstore "github.com/cloudlaunch/cloudlaunch-go/pkg/server/store/gorm"
)

var userCreateCmd = &cobra.Command{
	Use:   "create <username>",
	Short: "Create a user",
	Long: `Create a user.

The password is read from the first line of standard input. Staff users can
manage the application catalog, clouds and public services.

Example:
  echo "$ADMIN_PASSWORD" | cloudlaunchctl user create admin --staff --email admin@example.org`,
	Args: cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		email, _ := cmd.Flags().GetString("email")
		staff, _ := cmd.Flags().GetBool("staff")

		password, err := readPassword(os.Stdin)
		exitOnError("Unable to read password", err)

		database, err := connectDB(nil)
		exitOnError("Unable to connect to DB", err)

		u, err := createUser(gormstore.NewUsersStore(database), args[0], email, password, staff)
		exitOnError("Failed to create user", err)

		fmt.Fprintf(os.Stderr, "Created user '%s' (id %d)\n", u.Username, u.ID)
	},
}

func init() {
	userCmd.AddCommand(userCreateCmd)
	userCreateCmd.Flags().StringP("email", "e", "", "email address")
	userCreateCmd.Flags().Bool("staff", false, "grant staff rights")
}

func readPassword(r io.Reader) (string, error) {
	line, err := bufio.NewReader(r).ReadString('\n')
	if err != nil && err != io.EOF {
		return "", err
	}
	return strings.TrimRight(line, "\r\n"), nil
}

func createUser(users store.UsersStore, username, email, password string, staff bool) (*model.User, error) {
	if err := auth.ValidatePassword("password", password); err != nil {
		return nil, err
	}
	hash, err := auth.HashPassword(password)
	if err != nil {
		return nil, err
	}
	u := &model.User{
		Username:     username,
		Email:        email,
		PasswordHash: hash,
		IsStaff:      staff,
	}
	if err := users.CreateUser(u); err != nil {
		return nil, err
	}
	return u, nil
}
