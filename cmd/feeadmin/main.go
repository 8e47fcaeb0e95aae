// Command feeadmin performs operator tasks against the feeledger database.
package main

import (
	"bufio"
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/google/uuid"
	"golang.org/x/term"

	"github.com/feeledger/feeledger/internal/account"
	"github.com/feeledger/feeledger/internal/config"
	"github.com/feeledger/feeledger/internal/database"
	"github.com/feeledger/feeledger/internal/licensing"
	"github.com/feeledger/feeledger/internal/session"
)

type adminCreator interface {
	CreateSuperAdmin(ctx context.Context, username, password string) (*account.Account, error)
}

type accountFinder interface {
	GetByUsername(ctx context.Context, username string) (*account.Account, error)
}

type sessionEnder interface {
	EndAll(ctx context.Context, accountID uuid.UUID) error
}

// app holds the services a command needs once the database is open.
type app struct {
	admins   adminCreator
	accounts accountFinder
	sessions sessionEnder
}

type connectFunc func(ctx context.Context) (*app, func(), error)

func main() {
	err := run(context.Background(), os.Args[1:], os.Stdin, os.Stdout, os.Stderr, connect)
	if err != nil {
		if errors.Is(err, flag.ErrHelp) {
			os.Exit(0)
		}
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func connect(ctx context.Context) (*app, func(), error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, nil, fmt.Errorf("loading configuration: %w", err)
	}
	if err := database.Migrate(cfg.DatabaseURL); err != nil {
		return nil, nil, err
	}
	db, err := database.New(ctx, cfg.DatabaseURL)
	if err != nil {
		return nil, nil, err
	}

	pool := db.Pool()
	calendar := licensing.NewCalendar(cfg.Location())
	licenses := licensing.NewService(licensing.NewRepository(pool), calendar)
	accountRepo := account.NewRepository(pool)
	accounts := account.NewService(accountRepo, licenses, cfg.BcryptCost)
	sessions := session.NewService(session.NewRepository(pool), accounts, accountRepo, calendar, cfg.SessionTTL())

	return &app{admins: accounts, accounts: accountRepo, sessions: sessions}, db.Close, nil
}

func usage(w io.Writer) {
	fmt.Fprintln(w, "Usage:")
	fmt.Fprintln(w, "  feeadmin create-admin -user USERNAME [-password PASSWORD]   create a super admin (password is prompted when omitted)")
	fmt.Fprintln(w, "  feeadmin end-sessions -user USERNAME                         log a user out everywhere")
}

func run(ctx context.Context, args []string, stdin io.Reader, stdout, stderr io.Writer, open connectFunc) error {
	if len(args) == 0 {
		usage(stderr)
		return flag.ErrHelp
	}

	switch args[0] {
	case "create-admin":
		return createAdmin(ctx, args[1:], stdin, stdout, stderr, open)
	case "end-sessions":
		return endSessions(ctx, args[1:], stdout, stderr, open)
	case "-h", "-help", "--help", "help":
		usage(stdout)
		return flag.ErrHelp
	default:
		usage(stderr)
		return fmt.Errorf("unknown command %q", args[0])
	}
}

func createAdmin(ctx context.Context, args []string, stdin io.Reader, stdout, stderr io.Writer, open connectFunc) error {
	fs := flag.NewFlagSet("create-admin", flag.ContinueOnError)
	fs.SetOutput(stderr)
	username := fs.String("user", "", "Username")
	passwordFlag := fs.String("password", "", "Password (optional, will prompt if omitted)")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if strings.TrimSpace(*username) == "" {
		fs.Usage()
		return errors.New("missing required flag: -user")
	}

	password := *passwordFlag
	if password == "" {
		fmt.Fprint(stdout, "Password: ")
		var err error
		password, err = readPassword(stdin)
		fmt.Fprintln(stdout)
		if err != nil {
			return fmt.Errorf("reading password: %w", err)
		}
	}
	if len(password) < account.MinPasswordLength {
		return account.ErrWeakPassword
	}

	a, closeFn, err := open(ctx)
	if err != nil {
		return err
	}
	defer closeFn()

	created, err := a.admins.CreateSuperAdmin(ctx, *username, password)
	if err != nil {
		if errors.Is(err, account.ErrDuplicateUsername) {
			return fmt.Errorf("user %s already exists", *username)
		}
		return err
	}

	fmt.Fprintf(stdout, "Super admin %s created with ID %s\n", created.Username, created.ID)
	return nil
}

func endSessions(ctx context.Context, args []string, stdout, stderr io.Writer, open connectFunc) error {
	fs := flag.NewFlagSet("end-sessions", flag.ContinueOnError)
	fs.SetOutput(stderr)
	username := fs.String("user", "", "Username")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if strings.TrimSpace(*username) == "" {
		fs.Usage()
		return errors.New("missing required flag: -user")
	}

	a, closeFn, err := open(ctx)
	if err != nil {
		return err
	}
	defer closeFn()

	target, err := a.accounts.GetByUsername(ctx, *username)
	if err != nil {
		if errors.Is(err, account.ErrNotFound) {
			return fmt.Errorf("user %s not found", *username)
		}
		return err
	}
	if err := a.sessions.EndAll(ctx, target.ID); err != nil {
		return err
	}

	fmt.Fprintf(stdout, "All sessions of %s ended\n", target.Username)
	return nil
}

func readPassword(stdin io.Reader) (string, error) {
	if f, ok := stdin.(*os.File); ok && term.IsTerminal(int(f.Fd())) {
		b, err := term.ReadPassword(int(f.Fd()))
		if err != nil {
			return "", err
		}
		return string(b), nil
	}

	// pipes and tests
	scanner := bufio.NewScanner(stdin)
	if scanner.Scan() {
		return scanner.Text(), nil
	}
	if err := scanner.Err(); err != nil {
		return "", err
	}
	return "", io.EOF
}
