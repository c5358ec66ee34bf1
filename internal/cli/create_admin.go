package cli

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/asowa/marketplace/internal/audit"
	"github.com/asowa/marketplace/internal/auth"
	"github.com/asowa/marketplace/internal/config"
	"github.com/asowa/marketplace/internal/database"
	"github.com/asowa/marketplace/internal/database/accounts"
	auditRepo "github.com/asowa/marketplace/internal/database/audit"
	"github.com/asowa/marketplace/internal/entities"
	"github.com/asowa/marketplace/internal/logging"
)

// AdminPasswordEnv is read when -password is not given, keeping the
// password out of shell history.
const AdminPasswordEnv = "ASOWA_ADMIN_PASSWORD"

const createAdminTimeout = 30 * time.Second

// CreateAdminCommand provisions an admin account. Self-registration only
// ever creates user accounts, so this is the one way to obtain an admin.
type CreateAdminCommand struct {
	Email    string
	Fullname string
	Password string

	Config *config.Config
	Out    io.Writer
}

func NewCreateAdminCommand() *CreateAdminCommand {
	return &CreateAdminCommand{Out: os.Stdout}
}

func (cmd *CreateAdminCommand) ParseFlags(args []string) error {
	fs := flag.NewFlagSet("create-admin", flag.ContinueOnError)

	fs.StringVar(&cmd.Email, "email", "", "Admin email address (required)")
	fs.StringVar(&cmd.Fullname, "fullname", "", "Admin full name (required)")
	fs.StringVar(&cmd.Password, "password", "", "Admin password (defaults to $"+AdminPasswordEnv+")")

	fs.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage: %s create-admin [options]\n\n", os.Args[0])
		fmt.Fprintf(os.Stderr, "Create an admin account in the configured database.\n\n")
		fmt.Fprintf(os.Stderr, "Options:\n")
		fs.PrintDefaults()
		fmt.Fprintf(os.Stderr, "\nExamples:\n")
		fmt.Fprintf(os.Stderr, "  %s=s3cret %s create-admin -email admin@asowa.io -fullname \"Site Admin\"\n", AdminPasswordEnv, os.Args[0])
	}

	if err := fs.Parse(args); err != nil {
		return err
	}

	if cmd.Password == "" {
		cmd.Password = os.Getenv(AdminPasswordEnv)
	}

	switch {
	case cmd.Email == "":
		fs.Usage()
		return errors.New("email is required")
	case cmd.Fullname == "":
		fs.Usage()
		return errors.New("fullname is required")
	case cmd.Password == "":
		fs.Usage()
		return fmt.Errorf("password is required (use -password or %s)", AdminPasswordEnv)
	}
	return nil
}

func (cmd *CreateAdminCommand) Run() error {
	cfg := cmd.Config
	if cfg == nil {
		cfg = config.NewConfig()
	}
	log := logging.New(cfg.Log)

	db, err := database.NewDatabase(cfg.Database, log)
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}
	defer db.Close()

	// The signing secret is not needed to create an account; tokens are
	// never issued here.
	tokens, err := auth.NewTokenManager([]byte("create-admin"), cfg.Auth.TokenExpiry)
	if err != nil {
		return err
	}
	service, err := auth.NewService(accounts.NewRepository(db.DB), auth.NewPasswordHasher(cfg.Auth.BcryptCost), tokens)
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(context.Background(), createAdminTimeout)
	defer cancel()

	account, err := service.CreateAccount(ctx, auth.RegistrationInput{
		Fullname: cmd.Fullname,
		Email:    cmd.Email,
		Password: cmd.Password,
	}, entities.RoleAdmin)
	if err != nil {
		if errors.Is(err, entities.ErrDuplicateEmail) {
			return fmt.Errorf("an account with email %s already exists", auth.NormalizeEmail(cmd.Email))
		}
		return fmt.Errorf("failed to create admin: %w", err)
	}

	auditor := audit.NewService(auditRepo.NewRepository(db.DB), log)
	if err := auditor.Log(ctx, audit.AccountCreated(account, audit.ActionAdminCreate)); err != nil {
		log.WithError(err).Warn("admin created but not audited")
	}

	log.WithFields(logrus.Fields{
		"account_id": account.ID,
		"email":      account.Email,
	}).Info("admin account created")
	fmt.Fprintf(cmd.Out, "Created admin %s (id %d)\n", account.Email, account.ID)
	return nil
}
