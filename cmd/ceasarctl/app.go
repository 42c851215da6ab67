package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/spf13/pflag"
	"golang.org/x/term"

	"github.com/ceasar/auth-service/pkg/authclient"
)

const defaultServer = "http://localhost:3000"

// terminal bundles the process streams so tests can substitute them.
type terminal struct {
	in  *bufio.Reader
	out io.Writer
	err io.Writer
	now func() time.Time

	// readPassword reads a line without echo when stdin is a terminal.
	readPassword func() (string, error)
}

func newTerminal() *terminal {
	t := &terminal{
		in:  bufio.NewReader(os.Stdin),
		out: os.Stdout,
		err: os.Stderr,
		now: time.Now,
	}
	t.readPassword = func() (string, error) {
		fd := int(os.Stdin.Fd())
		if !term.IsTerminal(fd) {
			return t.readLine()
		}
		pw, err := term.ReadPassword(fd)
		fmt.Fprintln(t.err)
		return string(pw), err
	}
	return t
}

func (t *terminal) readLine() (string, error) {
	line, err := t.in.ReadString('\n')
	if err != nil && !(errors.Is(err, io.EOF) && line != "") {
		return "", err
	}
	return strings.TrimSpace(line), nil
}

func (t *terminal) prompt(label string) (string, error) {
	fmt.Fprint(t.err, label+": ")
	return t.readLine()
}

func (t *terminal) promptPassword() (string, error) {
	fmt.Fprint(t.err, "Password: ")
	return t.readPassword()
}

type app struct {
	client *authclient.Client
	store  authclient.TokenStore
	term   *terminal
}

func run(args []string, t *terminal) error {
	var server, sessionPath string

	flags := pflag.NewFlagSet("ceasarctl", pflag.ContinueOnError)
	flags.SetOutput(t.err)
	flags.SetInterspersed(false)
	flags.StringVar(&server, "server", envOr("CEASAR_SERVER", defaultServer), "auth server base URL")
	flags.StringVar(&sessionPath, "session", "", "session file (default: user config dir)")
	flags.Usage = func() { printUsage(t.err, flags) }

	if err := flags.Parse(args); err != nil {
		if errors.Is(err, pflag.ErrHelp) {
			return nil
		}
		return err
	}
	if flags.NArg() == 0 {
		printUsage(t.err, flags)
		return errors.New("missing command")
	}

	var store authclient.TokenStore
	if sessionPath != "" {
		store = authclient.NewFileStore(sessionPath)
	} else {
		fs, err := authclient.DefaultFileStore()
		if err != nil {
			return err
		}
		store = fs
	}

	a := &app{client: authclient.New(server), store: store, term: t}
	ctx := context.Background()

	cmd, rest := flags.Arg(0), flags.Args()[1:]
	switch cmd {
	case "register":
		return a.register(ctx, rest)
	case "login":
		return a.login(ctx, rest)
	case "whoami":
		return a.whoami(ctx)
	case "logout":
		return a.logout()
	default:
		printUsage(t.err, flags)
		return fmt.Errorf("unknown command %q", cmd)
	}
}

func (a *app) credentials(name string, args []string) (string, string, error) {
	var username string
	flags := pflag.NewFlagSet(name, pflag.ContinueOnError)
	flags.SetOutput(a.term.err)
	flags.StringVarP(&username, "username", "u", "", "account name")
	if err := flags.Parse(args); err != nil {
		return "", "", err
	}

	var err error
	if username == "" {
		if username, err = a.term.prompt("Username"); err != nil {
			return "", "", err
		}
	}
	password, err := a.term.promptPassword()
	if err != nil {
		return "", "", err
	}
	return username, password, nil
}

func (a *app) register(ctx context.Context, args []string) error {
	username, password, err := a.credentials("register", args)
	if err != nil {
		return err
	}
	if err := a.client.Register(ctx, username, password); err != nil {
		return err
	}
	fmt.Fprintf(a.term.out, "registered %s\n", username)
	return nil
}

func (a *app) login(ctx context.Context, args []string) error {
	username, password, err := a.credentials("login", args)
	if err != nil {
		return err
	}
	sess, err := a.client.Login(ctx, username, password)
	if err != nil {
		return err
	}
	if err := a.store.Save(sess); err != nil {
		return fmt.Errorf("save session: %w", err)
	}
	fmt.Fprintf(a.term.out, "logged in as %s, token expires at %s\n", username, sess.ExpiresAt.Local().Format(time.RFC1123))
	return nil
}

func (a *app) whoami(ctx context.Context) error {
	sess, err := a.store.Load()
	if errors.Is(err, authclient.ErrNoSession) {
		return errors.New("not logged in")
	}
	if err != nil {
		return err
	}

	v, err := a.client.Validate(ctx, sess.Token)
	if err != nil {
		return err
	}
	if !v.Valid {
		// The stored token is useless once rejected.
		_ = a.store.Clear()
		return fmt.Errorf("session rejected: %s", v.Message)
	}

	fmt.Fprintf(a.term.out, "%s (id %s)\n", v.User.Username, v.User.ID)
	fmt.Fprintf(a.term.out, "permissions: %s\n", strings.Join(v.User.Permissions, ", "))
	fmt.Fprintf(a.term.out, "expires in: %s\n", authclient.Session{ExpiresAt: v.ExpiresAt}.Remaining(a.term.now()).Round(time.Second))
	return nil
}

func (a *app) logout() error {
	if err := a.store.Clear(); err != nil {
		return err
	}
	fmt.Fprintln(a.term.out, "logged out")
	return nil
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func printUsage(w io.Writer, flags *pflag.FlagSet) {
	fmt.Fprintln(w, "Usage: ceasarctl [flags] <register|login|whoami|logout> [-u username]")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Flags:")
	fmt.Fprint(w, flags.FlagUsages())
}
