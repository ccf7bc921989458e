package cmd

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/crypto/bcrypt"
	"golang.org/x/term"

	"github.com/good-yellow-bee/synergy/internal/models"
	"github.com/good-yellow-bee/synergy/internal/service"
)

var (
	userEmail     string
	userFirstName string
	userLastName  string
)

// userCmd represents the user command group
var userCmd = &cobra.Command{
	Use:   "user",
	Short: "User management commands",
	Long: `Commands for managing Synergy users.

These commands operate directly on the database file and are intended
for system administrators to manage users outside of the API.

Examples:
  # List all users
  synergyctl user list

  # Create a user
  synergyctl user create --email jane@example.com --first-name Jane --last-name Doe

  # Reset a user's password
  synergyctl user passwd --email jane@example.com`,
}

// userListCmd lists all users
var userListCmd = &cobra.Command{
	Use:   "list",
	Short: "List all users",
	Long: `List all users in the database.

Displays id, email, display name and creation date for each user.
Passwords are never displayed.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		store, err := openDatabase(dbPath)
		if err != nil {
			return err
		}
		defer store.Close()

		userList, err := store.Users().List(cmd.Context())
		if err != nil {
			return fmt.Errorf("list users: %w", err)
		}

		w := cmd.OutOrStdout()
		if GetOutput() == "json" {
			return printJSON(w, userList)
		}
		if len(userList) == 0 {
			fmt.Fprintln(w, "No users found.")
			return nil
		}

		fmt.Fprintf(w, "\n%-36s  %-32s  %-24s  %s\n", "ID", "EMAIL", "NAME", "CREATED")
		fmt.Fprintln(w, strings.Repeat("-", 110))
		for _, u := range userList {
			fmt.Fprintf(w, "%-36s  %-32s  %-24s  %s\n",
				u.ID,
				u.Email,
				u.Name(),
				u.CreatedAt.Format("2006-01-02 15:04:05"),
			)
		}
		fmt.Fprintf(w, "\nTotal: %d user(s)\n", len(userList))

		return nil
	},
}

// userCreateCmd creates a new user
var userCreateCmd = &cobra.Command{
	Use:   "create",
	Short: "Create a new user",
	Long: `Create a new user in the database.

The password will be prompted interactively for security reasons
(to avoid exposing it in shell history).

Password requirements:
  - Minimum 12 characters
  - At least 1 uppercase letter (A-Z)
  - At least 1 lowercase letter (a-z)
  - At least 1 digit (0-9)
  - At least 1 special character (!@#$%^&*...)`,
	RunE: func(cmd *cobra.Command, args []string) error {
		password, err := promptNewPassword(cmd, "Enter password: ", "Confirm password: ")
		if err != nil {
			return err
		}

		store, err := openDatabase(dbPath)
		if err != nil {
			return err
		}
		defer store.Close()

		svc := service.New(store, nil, service.Config{})
		user, err := svc.Register(cmd.Context(), service.RegisterInput{
			Email:     userEmail,
			Password:  password,
			FirstName: userFirstName,
			LastName:  userLastName,
		})
		if err != nil {
			return fmt.Errorf("create user: %w", err)
		}

		w := cmd.OutOrStdout()
		fmt.Fprintf(w, "\nUser created successfully:\n")
		fmt.Fprintf(w, "  ID:    %s\n", user.ID)
		fmt.Fprintf(w, "  Email: %s\n", user.Email)
		fmt.Fprintf(w, "  Name:  %s\n", user.Name())

		return nil
	},
}

// userPasswdCmd resets a user's password
var userPasswdCmd = &cobra.Command{
	Use:   "passwd",
	Short: "Reset a user's password",
	Long: `Set a new password for an existing user without knowing the old one.

The new password will be prompted interactively. All of the user's
refresh tokens are revoked, forcing a new login everywhere.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		store, err := openDatabase(dbPath)
		if err != nil {
			return err
		}
		defer store.Close()

		ctx := cmd.Context()
		user, err := store.Users().GetByEmail(ctx, models.NormalizeEmail(userEmail))
		if err != nil {
			return fmt.Errorf("find user: %w", err)
		}
		if user == nil {
			return fmt.Errorf("user '%s' not found", userEmail)
		}

		password, err := promptNewPassword(cmd, "Enter new password: ", "Confirm new password: ")
		if err != nil {
			return err
		}

		hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
		if err != nil {
			return fmt.Errorf("hash password: %w", err)
		}

		now := time.Now()
		user.PasswordHash = string(hash)
		user.UpdatedAt = now
		if err := store.Users().Update(ctx, user); err != nil {
			return fmt.Errorf("update user: %w", err)
		}

		// Password is already changed; a failed revoke only leaves old sessions alive.
		if err := store.Tokens().RevokeAllForUser(ctx, user.ID, now); err != nil {
			PrintVerbose(cmd.ErrOrStderr(), "Warning: could not revoke existing sessions: %v", err)
		}

		w := cmd.OutOrStdout()
		fmt.Fprintf(w, "\nPassword changed successfully for '%s'.\n", user.Email)
		fmt.Fprintln(w, "All existing sessions have been revoked.")

		return nil
	},
}

func init() {
	rootCmd.AddCommand(userCmd)
	userCmd.AddCommand(userListCmd)
	userCmd.AddCommand(userCreateCmd)
	userCmd.AddCommand(userPasswdCmd)

	userCreateCmd.Flags().StringVar(&userEmail, "email", "", "email for the new user (required)")
	userCreateCmd.Flags().StringVar(&userFirstName, "first-name", "", "first name (required)")
	userCreateCmd.Flags().StringVar(&userLastName, "last-name", "", "last name (required)")
	userCreateCmd.MarkFlagRequired("email")
	userCreateCmd.MarkFlagRequired("first-name")
	userCreateCmd.MarkFlagRequired("last-name")

	userPasswdCmd.Flags().StringVar(&userEmail, "email", "", "email of the user to update (required)")
	userPasswdCmd.MarkFlagRequired("email")
}

// promptNewPassword asks for a password twice and validates it.
func promptNewPassword(cmd *cobra.Command, prompt, confirm string) (string, error) {
	in := newPasswordReader(cmd.InOrStdin(), cmd.OutOrStdout())

	password, err := in.read(prompt)
	if err != nil {
		return "", fmt.Errorf("read password: %w", err)
	}
	if err := service.ValidatePassword(password); err != nil {
		return "", fmt.Errorf("invalid password: %w", err)
	}

	again, err := in.read(confirm)
	if err != nil {
		return "", fmt.Errorf("read password confirmation: %w", err)
	}
	if password != again {
		return "", fmt.Errorf("passwords do not match")
	}
	return password, nil
}

// passwordReader reads passwords without echo from a terminal, or line by
// line from piped input.
type passwordReader struct {
	out   io.Writer
	fd    int
	tty   bool
	lines *bufio.Reader
}

func newPasswordReader(in io.Reader, out io.Writer) *passwordReader {
	r := &passwordReader{out: out, lines: bufio.NewReader(in)}
	if f, ok := in.(*os.File); ok && term.IsTerminal(int(f.Fd())) {
		r.fd = int(f.Fd())
		r.tty = true
	}
	return r
}

func (r *passwordReader) read(prompt string) (string, error) {
	fmt.Fprint(r.out, prompt)

	if r.tty {
		b, err := term.ReadPassword(r.fd)
		fmt.Fprintln(r.out)
		if err != nil {
			return "", err
		}
		return string(b), nil
	}

	line, err := r.lines.ReadString('\n')
	if err != nil && (err != io.EOF || line == "") {
		return "", err
	}
	return strings.TrimRight(line, "\r\n"), nil
}
