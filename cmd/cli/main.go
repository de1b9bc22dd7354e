// Command vault is a CLI client for the encrypted-vault service.
package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"time"

	u "github.com/gofrs/uuid/v5"

	"github.com/iota-pi/flock-sub001/internal/errs"
	"github.com/iota-pi/flock-sub001/internal/model"
	"github.com/iota-pi/flock-sub001/internal/sync"
)

// ---- config/state store ----

type stateFile struct {
	Server  string `json:"server"`
	Account string `json:"account"`
	Salt    string `json:"salt"`
	Session string `json:"session"`
}

func cfgDir() string {
	if v := os.Getenv("XDG_CONFIG_HOME"); v != "" {
		return filepath.Join(v, "flock-vault")
	}
	home, _ := os.UserHomeDir()
	return filepath.Join(home, ".config", "flock-vault")
}

func statePath() string { return filepath.Join(cfgDir(), "state.json") }

func saveState(st stateFile) error {
	_ = os.MkdirAll(cfgDir(), 0o700)
	f, err := os.Create(statePath())
	if err != nil {
		return err
	}
	defer f.Close()
	enc := json.NewEncoder(f)
	enc.SetIndent("", "  ")
	return enc.Encode(st)
}

func loadState() (stateFile, error) {
	var st stateFile
	b, err := os.ReadFile(statePath())
	if err != nil {
		return st, errors.New("no saved state (signup or login first)")
	}
	if err := json.Unmarshal(b, &st); err != nil {
		return st, err
	}
	return st, nil
}

// ---- utils ----

func printJSON(v any) {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	_ = enc.Encode(v)
}

func die(format string, args ...any) {
	fmt.Fprintf(os.Stderr, format+"\n", args...)
	os.Exit(1)
}

func withTimeout() (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.Background(), 30*time.Second)
}

func nowMillis() int64 { return time.Now().UnixMilli() }

// engineFromState rebuilds the client/session/engine from the saved state and
// the password. The derived key exists only for this process's lifetime.
func engineFromState(password string) (*sync.Engine, stateFile) {
	st, err := loadState()
	if err != nil {
		die("%v", err)
	}
	if password == "" {
		die("missing --password")
	}
	session, err := sync.NewSession(st.Account, password, st.Salt)
	if err != nil {
		die("derive key: %v", err)
	}
	client := sync.NewClient(st.Server)
	client.SetCredentials(st.Account, st.Session)
	return sync.NewEngine(client, session), st
}

// wrongPasswordHint maps the error taxonomy to a user-facing message: a
// decryption failure means a wrong password, never a network problem.
func wrongPasswordHint(err error) string {
	switch {
	case errors.Is(err, errs.ErrDecryption):
		return "wrong password (data could not be decrypted)"
	case errors.Is(err, errs.ErrAuthentication):
		return "wrong password (server rejected credentials)"
	case errors.Is(err, errs.ErrExpiredSession):
		return "session expired: login again"
	default:
		return err.Error()
	}
}

func main() {
	if len(os.Args) < 2 {
		usage()
	}
	cmd, args := os.Args[1], os.Args[2:]
	switch cmd {
	case "signup":
		cmdSignup(args)
	case "login":
		cmdLogin(args)
	case "add":
		cmdAdd(args)
	case "get":
		cmdGet(args)
	case "list":
		cmdList(args)
	case "delete":
		cmdDelete(args)
	case "export":
		cmdExport(args)
	case "import":
		cmdImport(args)
	default:
		usage()
	}
}

func usage() {
	fmt.Fprintln(os.Stderr, `usage: vault <command> [flags]

commands:
  signup   create a new account
  login    obtain a fresh session (signs out other sessions)
  add      encrypt and push one record
  get      pull and decrypt one record
  list     pull all records and print them
  delete   delete records by id
  export   download the encrypted backup file
  import   decrypt a backup file`)
	os.Exit(2)
}

// cmdSignup creates an account from a fresh salt and logs in.
func cmdSignup(args []string) {
	fs := flag.NewFlagSet("signup", flag.ExitOnError)
	server := fs.String("server", "http://localhost:8080", "server base URL")
	password := fs.String("password", "", "account password")
	_ = fs.Parse(args)
	if *password == "" {
		die("missing --password")
	}

	ctx, cancel := withTimeout()
	defer cancel()

	salt, err := sync.NewSalt()
	if err != nil {
		die("generate salt: %v", err)
	}
	client := sync.NewClient(*server)

	// The account id is unknown until the server allocates it; the key is
	// scoped by the salt alone, so derivation can happen up front.
	tmp, err := sync.NewSession("", *password, salt)
	if err != nil {
		die("derive key: %v", err)
	}
	tok, err := tmp.AuthToken()
	if err != nil {
		die("derive auth token: %v", err)
	}
	account, err := client.CreateAccount(ctx, salt, tok)
	if err != nil {
		die("create account: %v", err)
	}
	session, err := client.Login(ctx, account, tok)
	if err != nil {
		die("login: %v", err)
	}
	if err := saveState(stateFile{Server: *server, Account: account, Salt: salt, Session: session}); err != nil {
		die("save state: %v", err)
	}
	printJSON(map[string]string{"account": account})
}

// cmdLogin fetches the salt, derives the auth token, and rotates the session.
func cmdLogin(args []string) {
	fs := flag.NewFlagSet("login", flag.ExitOnError)
	server := fs.String("server", "http://localhost:8080", "server base URL")
	account := fs.String("account", "", "account id")
	password := fs.String("password", "", "account password")
	_ = fs.Parse(args)
	if *account == "" || *password == "" {
		die("missing --account/--password")
	}

	ctx, cancel := withTimeout()
	defer cancel()

	client := sync.NewClient(*server)
	salt, err := client.GetSalt(ctx, *account)
	if err != nil {
		die("fetch salt: %v", err)
	}
	sess, err := sync.NewSession(*account, *password, salt)
	if err != nil {
		die("derive key: %v", err)
	}
	tok, err := sess.AuthToken()
	if err != nil {
		die("derive auth token: %v", err)
	}
	session, err := client.Login(ctx, *account, tok)
	if err != nil {
		die("%s", wrongPasswordHint(err))
	}
	if err := saveState(stateFile{Server: *server, Account: *account, Salt: salt, Session: session}); err != nil {
		die("save state: %v", err)
	}
	printJSON(map[string]string{"account": *account, "session": "ok"})
}

// cmdAdd encrypts one record and pushes it.
func cmdAdd(args []string) {
	fs := flag.NewFlagSet("add", flag.ExitOnError)
	password := fs.String("password", "", "account password")
	id := fs.String("id", "", "record id (uuid, optional)")
	typ := fs.String("type", string(model.TypeGeneral), "record type")
	data := fs.String("data", "", "record payload (JSON)")
	_ = fs.Parse(args)
	if *data == "" || !json.Valid([]byte(*data)) {
		die("missing or invalid --data (must be JSON)")
	}
	if *id == "" {
		v, _ := u.NewV4()
		*id = v.String()
	}
	if !model.ItemType(*typ).Valid() {
		die("unknown type %q", *typ)
	}

	engine, _ := engineFromState(*password)
	ctx, cancel := withTimeout()
	defer cancel()

	rec := sync.Record{
		ID:       *id,
		Type:     model.ItemType(*typ),
		Data:     json.RawMessage(*data),
		Modified: nowMillis(),
	}
	details, err := engine.Push(ctx, []sync.Record{rec})
	if err != nil {
		die("push: %s", wrongPasswordHint(err))
	}
	printJSON(details)
}

// cmdGet pulls a single record by id and prints the plaintext.
func cmdGet(args []string) {
	fs := flag.NewFlagSet("get", flag.ExitOnError)
	password := fs.String("password", "", "account password")
	id := fs.String("id", "", "record id")
	_ = fs.Parse(args)
	if *id == "" {
		die("missing --id")
	}

	engine, _ := engineFromState(*password)
	ctx, cancel := withTimeout()
	defer cancel()

	if err := engine.Pull(ctx); err != nil {
		die("pull: %s", wrongPasswordHint(err))
	}
	rec, ok := engine.Cache().Get(*id)
	if !ok {
		die("record %s not found", *id)
	}
	printJSON(rec)
}

// cmdList pulls everything and prints the decrypted records.
func cmdList(args []string) {
	fs := flag.NewFlagSet("list", flag.ExitOnError)
	password := fs.String("password", "", "account password")
	_ = fs.Parse(args)

	engine, _ := engineFromState(*password)
	ctx, cancel := withTimeout()
	defer cancel()

	if err := engine.Pull(ctx); err != nil {
		die("pull: %s", wrongPasswordHint(err))
	}
	printJSON(engine.Cache().All())
}

// cmdDelete removes records by id.
func cmdDelete(args []string) {
	fs := flag.NewFlagSet("delete", flag.ExitOnError)
	password := fs.String("password", "", "account password")
	_ = fs.Parse(args)
	ids := fs.Args()
	if len(ids) == 0 {
		die("usage: vault delete [flags] <id>...")
	}

	engine, _ := engineFromState(*password)
	ctx, cancel := withTimeout()
	defer cancel()

	details, err := engine.Delete(ctx, ids)
	if err != nil {
		die("delete: %v", err)
	}
	printJSON(details)
}

// cmdExport downloads the encrypted backup file.
func cmdExport(args []string) {
	fs := flag.NewFlagSet("export", flag.ExitOnError)
	password := fs.String("password", "", "account password")
	out := fs.String("out", "backup.json", "output file")
	_ = fs.Parse(args)

	engine, _ := engineFromState(*password)
	ctx, cancel := withTimeout()
	defer cancel()

	data, err := engine.Export(ctx)
	if err != nil {
		die("export: %v", err)
	}
	if err := os.WriteFile(*out, data, 0o600); err != nil {
		die("write %s: %v", *out, err)
	}
	fmt.Printf("wrote %s (%d bytes)\n", *out, len(data))
}

// cmdImport decrypts a backup file and prints the recovered records plus the
// per-record report. Individual decrypt failures are reported, not fatal.
func cmdImport(args []string) {
	fs := flag.NewFlagSet("import", flag.ExitOnError)
	password := fs.String("password", "", "account password")
	in := fs.String("in", "backup.json", "input file")
	_ = fs.Parse(args)

	engine, _ := engineFromState(*password)
	data, err := os.ReadFile(*in)
	if err != nil {
		die("read %s: %v", *in, err)
	}
	report, err := engine.Import(data)
	if err != nil {
		die("import: %v", err)
	}
	printJSON(report)
}
