package main

import (
	"context"
	"database/sql"
	"errors"
	"flag"
	"fmt"
	"io"
	"net/mail"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"

	"github.com/trezcool/campus/apps"
	"github.com/trezcool/campus/core"
	"github.com/trezcool/campus/core/academic"
	"github.com/trezcool/campus/core/crud"
	"github.com/trezcool/campus/core/page"
	"github.com/trezcool/campus/core/store"
	"github.com/trezcool/campus/core/user"
	"github.com/trezcool/campus/services/excel"
	"github.com/trezcool/campus/services/notify"
	"github.com/trezcool/campus/services/rest"
)

var (
	errHelp    = errors.New("help provided")
	errNoToken = errors.New("no API token configured: see the token command")
)

type commandLine struct {
	conf       *core.Config
	logger     core.Logger
	client     *restsvc.Client
	mailer     core.EmailService
	store      *store.Store
	toaster    *notify.Toaster
	validate   *validator.Validate
	translator ut.Translator
	openDB     func() (*sql.DB, error)
	out        io.Writer
}

func newCommandLine(conf *core.Config, logger core.Logger, client *restsvc.Client, mailer core.EmailService, out io.Writer) *commandLine {
	validate, translator := core.NewValidator()
	return &commandLine{
		conf:       conf,
		logger:     logger,
		client:     client,
		mailer:     mailer,
		store:      store.New(logger),
		toaster:    notify.NewToaster(time.Minute),
		validate:   validate,
		translator: translator,
		out:        out,
	}
}

func (cli *commandLine) printUsage() {
	fmt.Fprintln(cli.out, "Usage:")
	fmt.Fprintln(cli.out, "  list -resource R [-search TERM] [-sort [-]PATH]     - list the items of a resource")
	fmt.Fprintln(cli.out, "  show -resource R -id ID                            - show one item")
	fmt.Fprintln(cli.out, "  create -resource R -set PATH=VALUE...              - create an item")
	fmt.Fprintln(cli.out, "  update -resource R -id ID -set PATH=VALUE...       - update an item")
	fmt.Fprintln(cli.out, "  delete -resource R -id ID                          - delete an item")
	fmt.Fprintln(cli.out, "  export -resource R -out FILE.xlsx [-search TERM] [-mail ADDRESS]")
	fmt.Fprintln(cli.out, "  import -resource R -in FILE.xlsx                   - create one item per row")
	fmt.Fprintln(cli.out, "  token -username NAME -roles R1,R2 [-perms P1,P2]   - sign an API token")
	fmt.Fprintln(cli.out, "  migrate COMMAND [ARGS]                             - run a goose migration command")
	fmt.Fprintf(cli.out, "Resources: %s\n", strings.Join(academic.Names(), ", "))
}

func (cli *commandLine) run(args []string) error {
	if len(args) < 2 {
		cli.printUsage()
		return errHelp
	}

	ctx := context.Background()
	switch args[1] {
	case "list":
		return cli.list(ctx, args[2:])
	case "show":
		return cli.show(ctx, args[2:])
	case "create":
		return cli.save(ctx, "create", args[2:])
	case "update":
		return cli.save(ctx, "update", args[2:])
	case "delete":
		return cli.delete(ctx, args[2:])
	case "export":
		return cli.export(ctx, args[2:])
	case "import":
		return cli.importFile(ctx, args[2:])
	case "token":
		return cli.token(args[2:])
	case "migrate":
		if len(args) < 3 {
			cli.printUsage()
			return errHelp
		}
		return cli.migrate(args[2:])
	default:
		cli.printUsage()
		return errHelp
	}
}

// valuesFlag collects repeated "-set path=value" flags.
type valuesFlag map[string]string

func (v valuesFlag) String() string {
	pairs := make([]string, 0, len(v))
	for k, val := range v {
		pairs = append(pairs, k+"="+val)
	}
	sort.Strings(pairs)
	return strings.Join(pairs, ",")
}

func (v valuesFlag) Set(s string) error {
	i := strings.Index(s, "=")
	if i <= 0 {
		return apps.NewArgumentError("set", "%q must look like path=value", s)
	}
	v[strings.TrimSpace(s[:i])] = s[i+1:]
	return nil
}

type resourceFlags struct {
	*flag.FlagSet
	resource *string
	id       *string
}

func (cli *commandLine) flagSet(name string, withID bool) resourceFlags {
	fs := flag.NewFlagSet(name, flag.ContinueOnError)
	fs.SetOutput(cli.out)
	rf := resourceFlags{FlagSet: fs}
	rf.resource = fs.String("resource", "", "The resource name, eg. "+academic.ResStudent)
	if withID {
		rf.id = fs.String("id", "", "The item id")
	}
	return rf
}

// parse reads the flags and returns the named resource.
func (rf resourceFlags) parse(args []string, idRequired bool) (crud.Resource, error) {
	if err := rf.Parse(args); err != nil {
		return crud.Resource{}, errHelp
	}
	if *rf.resource == "" || (idRequired && *rf.id == "") {
		rf.Usage()
		return crud.Resource{}, errHelp
	}
	res, ok := academic.Lookup(*rf.resource)
	if !ok {
		return crud.Resource{}, apps.NewArgumentError("resource", "unknown resource %q", *rf.resource)
	}
	return res, nil
}

func (cli *commandLine) gate() (user.Gate, error) {
	if cli.conf.API.Token == "" {
		return user.Gate{}, errNoToken
	}
	usr, err := user.FromToken(cli.conf.API.Token, "")
	if err != nil {
		return user.Gate{}, err
	}
	return user.NewGate(usr), nil
}

func (cli *commandLine) deps(exporter page.Exporter) (page.Deps, error) {
	gate, err := cli.gate()
	if err != nil {
		return page.Deps{}, err
	}
	notifiers := notify.Fanout{cli.toaster}
	if cli.logger != nil {
		notifiers = append(notifiers, notify.NewLogNotifier(cli.logger))
	}
	return page.Deps{
		Gate:       gate,
		Notifier:   notifiers,
		Exporter:   exporter,
		Importer:   excel.Reader{},
		Validate:   cli.validate,
		Translator: cli.translator,
		Logger:     cli.logger,
	}, nil
}

func (cli *commandLine) collection(res crud.Resource) (*store.Collection[record], error) {
	return store.Register[record](cli.store, restsvc.NewService[record](cli.client, res.Path))
}

// setUp returns what every resource command needs.
func (cli *commandLine) setUp(res crud.Resource, exporter page.Exporter) (*store.Collection[record], page.Deps, error) {
	deps, err := cli.deps(exporter)
	if err != nil {
		return nil, deps, err
	}
	coll, err := cli.collection(res)
	return coll, deps, err
}

// done prints the pending notifications and passes err through.
func (cli *commandLine) done(err error) error {
	for _, n := range cli.toaster.Drain() {
		if n.Description == "" {
			fmt.Fprintf(cli.out, "[%s] %s\n", n.Kind, n.Title)
			continue
		}
		fmt.Fprintf(cli.out, "[%s] %s: %s\n", n.Kind, n.Title, n.Description)
	}
	return err
}

func (cli *commandLine) list(ctx context.Context, args []string) error {
	rf := cli.flagSet("list", false)
	search := rf.String("search", "", "Only show items matching this term")
	sortBy := rf.String("sort", "", "Sort by this dot path, descending when prefixed with -")
	res, err := rf.parse(args, false)
	if err != nil {
		return err
	}
	coll, deps, err := cli.setUp(res, tableExporter{})
	if err != nil {
		return err
	}

	lp := page.NewListPage(coll, deps, page.ListConfig{Resource: res})
	if err = lp.Mount(ctx); err != nil {
		return cli.done(err)
	}
	lp.SetSearch(*search)
	if *sortBy != "" {
		lp.SortBy(strings.TrimPrefix(*sortBy, "-"), !strings.HasPrefix(*sortBy, "-"))
	}
	return cli.done(lp.Export(cli.out))
}

func (cli *commandLine) show(ctx context.Context, args []string) error {
	rf := cli.flagSet("show", true)
	res, err := rf.parse(args, true)
	if err != nil {
		return err
	}
	coll, deps, err := cli.setUp(res, nil)
	if err != nil {
		return err
	}

	dp := page.NewDetailPage(coll, deps, page.DetailConfig{Resource: res}, *rf.id)
	if err = dp.Mount(ctx); err != nil {
		return cli.done(err)
	}
	return cli.done(printFields(cli.out, dp.View().Fields))
}

func (cli *commandLine) save(ctx context.Context, cmd string, args []string) error {
	rf := cli.flagSet(cmd, true)
	values := make(valuesFlag)
	rf.Var(values, "set", "A field value as path=value, eg. guardian.name=Jane (repeatable)")
	res, err := rf.parse(args, cmd == "update")
	if err != nil {
		return err
	}
	if len(values) == 0 {
		rf.Usage()
		return errHelp
	}
	id := *rf.id
	if cmd == "create" {
		id = ""
	}
	kit, ok := formKits[res.Name]
	if !ok {
		return apps.NewArgumentError("resource", "%s cannot be edited", res.Name)
	}
	coll, deps, err := cli.setUp(res, nil)
	if err != nil {
		return err
	}

	rec, err := kit.submit(ctx, coll, deps, res, id, values)
	if err == nil {
		fmt.Fprintln(cli.out, rec.EntityID())
	}
	return cli.done(err)
}

func (cli *commandLine) delete(ctx context.Context, args []string) error {
	rf := cli.flagSet("delete", true)
	res, err := rf.parse(args, true)
	if err != nil {
		return err
	}
	coll, deps, err := cli.setUp(res, nil)
	if err != nil {
		return err
	}
	dp := page.NewDetailPage(coll, deps, page.DetailConfig{Resource: res}, *rf.id)
	return cli.done(dp.Delete(ctx))
}

func (cli *commandLine) export(ctx context.Context, args []string) error {
	rf := cli.flagSet("export", false)
	out := rf.String("out", "", "The .xlsx file to write")
	search := rf.String("search", "", "Only export items matching this term")
	mailTo := rf.String("mail", "", "Also send the file to this address")
	res, err := rf.parse(args, false)
	if err != nil {
		return err
	}
	if *out == "" {
		rf.Usage()
		return errHelp
	}
	var rcpt *mail.Address
	if *mailTo != "" {
		if rcpt, err = mail.ParseAddress(*mailTo); err != nil {
			return apps.NewArgumentError("mail", "%v", err)
		}
	}
	coll, deps, err := cli.setUp(res, excel.Writer{})
	if err != nil {
		return err
	}

	lp := page.NewListPage(coll, deps, page.ListConfig{Resource: res})
	if err = lp.Mount(ctx); err != nil {
		return cli.done(err)
	}
	lp.SetSearch(*search)
	if err = lp.ExportFile(*out); err != nil {
		return cli.done(err)
	}
	fmt.Fprintf(cli.out, "%d %s exported to %s\n", len(lp.View().Rows), core.Pluralize(res.Label), *out)

	if rcpt != nil {
		msg := &core.EmailMessage{
			To:          []mail.Address{*rcpt},
			Subject:     lp.Config().Title + " export",
			TextContent: fmt.Sprintf("Please find attached the export of %s.", strings.ToLower(lp.Config().Title)),
		}
		if err = msg.AttachFile(*out, excel.ContentType); err != nil {
			return cli.done(err)
		}
		if err = cli.mailer.SendMessages(msg); err != nil {
			return cli.done(err)
		}
		fmt.Fprintf(cli.out, "sent to %s\n", rcpt.Address)
	}
	return cli.done(nil)
}

func (cli *commandLine) importFile(ctx context.Context, args []string) error {
	rf := cli.flagSet("import", false)
	in := rf.String("in", "", "The .xlsx file to read")
	res, err := rf.parse(args, false)
	if err != nil {
		return err
	}
	if *in == "" {
		rf.Usage()
		return errHelp
	}
	kit, ok := formKits[res.Name]
	if !ok {
		return apps.NewArgumentError("resource", "%s cannot be imported", res.Name)
	}
	coll, deps, err := cli.setUp(res, nil)
	if err != nil {
		return err
	}

	f, err := os.Open(filepath.Clean(*in))
	if err != nil {
		return apps.NewArgumentError("in", "%v", err)
	}
	defer f.Close()

	lp := page.NewListPage(coll, deps, page.ListConfig{Resource: res, OnImport: kit.onImport(coll, deps, res)})
	return cli.done(lp.Import(ctx, f))
}

// token signs a token for the API. The server must share the secret key.
func (cli *commandLine) token(args []string) error {
	fs := flag.NewFlagSet("token", flag.ContinueOnError)
	fs.SetOutput(cli.out)
	username := fs.String("username", "", "The user's username")
	name := fs.String("name", "", "The user's full name")
	roles := fs.String("roles", "", "Comma separated roles, eg. "+user.RoleAdminRegistrar)
	perms := fs.String("perms", "", "Comma separated extra permissions, eg. course:view")
	ttl := fs.Duration("ttl", cli.conf.Server.JWTExpirationDelta, "How long the token is valid")
	if err := fs.Parse(args); err != nil {
		return errHelp
	}
	if *username == "" || (*roles == "" && *perms == "") {
		fs.Usage()
		return errHelp
	}
	if cli.conf.SecretKey == "" {
		return errors.New("no secret key configured")
	}
	if *ttl <= 0 {
		return apps.NewArgumentError("ttl", "must be positive")
	}

	usr := user.User{
		ID:          *username,
		Name:        *name,
		Username:    *username,
		Roles:       splitList(*roles),
		Permissions: splitList(*perms),
	}
	token, err := user.SignToken(user.NewClaims(usr, cli.conf.AppName, *ttl), cli.conf.SecretKey)
	if err != nil {
		return err
	}
	fmt.Fprintln(cli.out, token)
	return nil
}

func splitList(s string) []string {
	var items []string
	for _, it := range strings.Split(s, ",") {
		if it = strings.TrimSpace(it); it != "" {
			items = append(items, it)
		}
	}
	return items
}
