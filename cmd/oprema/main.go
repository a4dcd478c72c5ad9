// Command oprema runs the marathon equipment tracker.
package main

import (
	"context"
	"crypto/rand"
	"database/sql"
	"errors"
	"fmt"
	"math/big"
	"os"

	"github.com/spf13/cobra"
	"golang.org/x/crypto/bcrypt"

	"github.com/erazemk/oprema/internal/config"
	"github.com/erazemk/oprema/internal/db"
	"github.com/erazemk/oprema/internal/model"
	"github.com/erazemk/oprema/internal/seed"
	"github.com/erazemk/oprema/internal/store"
)

func main() {
	if err := newRootCommand().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "oprema: %v\n", err)
		os.Exit(1)
	}
}

// app carries the loaded configuration from the root command to its children.
type app struct {
	cfg      *config.Config
	closeLog func()
}

func newRootCommand() *cobra.Command {
	a := &app{closeLog: func() {}}

	root := &cobra.Command{
		Use:           "oprema",
		Short:         "Track marathon equipment handed out to stations and returned",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := config.Load(cmd)
			if err != nil {
				return err
			}
			closeLog, err := setupLogger(cfg.LogPath)
			if err != nil {
				return err
			}
			a.cfg = cfg
			a.closeLog = closeLog
			return nil
		},
		PersistentPostRun: func(*cobra.Command, []string) {
			a.closeLog()
		},
	}
	config.AddFlags(root)

	root.AddCommand(
		a.initCommand(),
		a.migrateCommand(),
		a.serveCommand(),
		a.seedCommand(),
		a.userCommand(),
	)
	return root
}

func (a *app) initCommand() *cobra.Command {
	var adminUser string
	cmd := &cobra.Command{
		Use:   "init",
		Short: "Create a new database with an admin account",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if _, err := os.Stat(a.cfg.DBPath); err == nil {
				return fmt.Errorf("database file %s already exists", a.cfg.DBPath)
			}
			password, err := initDatabase(cmd.Context(), a.cfg.DBPath, adminUser)
			if err != nil {
				return err
			}
			printInitResult(a.cfg.DBPath, adminUser, password)
			return nil
		},
	}
	cmd.Flags().StringVarP(&adminUser, "user", "u", "admin", "admin username")
	return cmd
}

func (a *app) migrateCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Apply pending schema migrations",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			database, err := db.Open(a.cfg.DBPath)
			if err != nil {
				return err
			}
			defer database.Close()

			applied, err := db.Migrate(cmd.Context(), database)
			if err != nil {
				return err
			}
			fmt.Printf("Applied %d migration(s) to %s.\n", applied, a.cfg.DBPath)
			return nil
		},
	}
}

func (a *app) seedCommand() *cobra.Command {
	var path string
	cmd := &cobra.Command{
		Use:   "seed",
		Short: "Load marathons, stations, persons and stock from a YAML file",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			file, err := seed.Load(path)
			if err != nil {
				return err
			}
			database, err := openMigrated(cmd.Context(), a.cfg.DBPath)
			if err != nil {
				return err
			}
			defer database.Close()

			res, err := seed.Apply(cmd.Context(), database, file)
			if err != nil {
				return err
			}
			fmt.Printf("Seeded %d marathon(s), %d station(s), %d person(s), %d equipment.\n",
				res.Marathons, res.Stations, res.Persons, res.Equipment)
			return nil
		},
	}
	cmd.Flags().StringVarP(&path, "file", "f", "", "seed file")
	_ = cmd.MarkFlagRequired("file")
	return cmd
}

func (a *app) userCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "user",
		Short: "Manage user accounts",
	}

	var role, password string
	create := &cobra.Command{
		Use:   "create <username>",
		Short: "Create a user, printing a generated password when none is given",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if !model.ValidRole(role) {
				return fmt.Errorf("invalid role %q", role)
			}
			generated := password == ""
			if generated {
				var err error
				if password, err = generatePassword(16); err != nil {
					return fmt.Errorf("generating password: %w", err)
				}
			} else if err := model.ValidatePassword(password); err != nil {
				return err
			}

			database, err := openMigrated(cmd.Context(), a.cfg.DBPath)
			if err != nil {
				return err
			}
			defer database.Close()

			existing, err := store.GetUserByUsername(cmd.Context(), database, args[0])
			if err != nil {
				return err
			}
			if existing != nil && existing.DeletedAt == nil {
				return fmt.Errorf("user %s already exists", args[0])
			}

			hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
			if err != nil {
				return fmt.Errorf("hashing password: %w", err)
			}
			u, err := store.CreateUser(cmd.Context(), database, args[0], string(hash), role)
			if err != nil {
				return err
			}

			fmt.Printf("Created %s (%s).\n", u.Username, u.Role)
			if generated {
				fmt.Printf("Password: %s\n", password)
			}
			return nil
		},
	}
	create.Flags().StringVarP(&role, "role", "r", model.RoleUser, "role: admin, storekeeper or user")
	create.Flags().StringVarP(&password, "password", "p", "", "password (generated when empty)")

	cmd.AddCommand(create)
	return cmd
}

// openMigrated opens the database and fails when its schema is not current.
func openMigrated(ctx context.Context, path string) (*sql.DB, error) {
	if _, err := os.Stat(path); errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("database %s does not exist, run oprema init first", path)
	}
	database, err := db.Open(path)
	if err != nil {
		return nil, err
	}
	pending, err := db.PendingMigrations(ctx, database)
	if err != nil {
		database.Close()
		return nil, err
	}
	if pending > 0 {
		database.Close()
		return nil, fmt.Errorf("database has %d pending migration(s), run oprema migrate first", pending)
	}
	return database, nil
}

// initDatabase creates the database file, applies all migrations and creates
// the admin account. The file is removed again when any step fails.
func initDatabase(ctx context.Context, path, adminUsername string) (password string, err error) {
	database, err := db.Open(path)
	if err != nil {
		return "", err
	}
	defer func() {
		database.Close()
		if err != nil {
			os.Remove(path)
		}
	}()

	if _, err = db.Migrate(ctx, database); err != nil {
		return "", err
	}

	password, err = generatePassword(16)
	if err != nil {
		return "", fmt.Errorf("generating password: %w", err)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", fmt.Errorf("hashing password: %w", err)
	}

	if _, err = store.CreateUser(ctx, database, adminUsername, string(hash), model.RoleAdmin); err != nil {
		return "", fmt.Errorf("creating admin user: %w", err)
	}
	return password, nil
}

func printInitResult(dbPath, username, password string) {
	fmt.Printf("Database created: %s\n", dbPath)
	fmt.Println("Schema initialized.")
	fmt.Println()
	fmt.Println("Admin account created:")
	fmt.Printf("  Username: %s\n", username)
	fmt.Printf("  Password: %s\n", password)
	fmt.Println()
	fmt.Println("Save this password, it cannot be recovered.")
	fmt.Println("The admin can change it after signing in.")
}

// generatePassword creates a random password of the given length.
func generatePassword(length int) (string, error) {
	const charset = "abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789!@#$%&*"
	result := make([]byte, length)
	for i := range result {
		n, err := rand.Int(rand.Reader, big.NewInt(int64(len(charset))))
		if err != nil {
			return "", err
		}
		result[i] = charset[n.Int64()]
	}
	return string(result), nil
}
