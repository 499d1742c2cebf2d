package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/hibiken/asynq"

	"github.com/tablero-fiscal/tablero/cmd/tablero/cli"
	"github.com/tablero-fiscal/tablero/internal/app"
	"github.com/tablero-fiscal/tablero/internal/auth"
	"github.com/tablero-fiscal/tablero/internal/dataset"
	"github.com/tablero-fiscal/tablero/jobs"
)

const usage = `usage: tablero [serve]
       tablero snapshot check [-json] [-source main,personal]
       tablero users hash <password>
       tablero users add -username U -name N [-role admin|user] -password P
       tablero jobs refresh [-source main,personal]
       tablero jobs stats`

func runCommand(args []string) int {
	ctx := context.Background()
	cfg, err := app.LoadToolConfig()
	if err != nil {
		fmt.Fprintf(os.Stderr, "load config: %v\n", err)
		return 1
	}
	if len(args) < 2 {
		fmt.Fprintln(os.Stderr, usage)
		return 2
	}
	switch args[0] + " " + args[1] {
	case "snapshot check":
		return snapshotCheck(ctx, cfg, args[2:])
	case "users hash":
		if len(args) != 3 {
			fmt.Fprintln(os.Stderr, usage)
			return 2
		}
		return cli.NewUsersCLI(nil).HashCommand(args[2], os.Stdout, os.Stderr)
	case "users add":
		return usersAdd(ctx, cfg, args[2:])
	case "jobs refresh":
		return jobsRefresh(ctx, cfg, args[2:])
	case "jobs stats":
		redisOpt, err := app.AsynqRedis(cfg)
		if err != nil {
			fmt.Fprintf(os.Stderr, "jobs stats: %v\n", err)
			return 1
		}
		inspector := asynq.NewInspector(redisOpt)
		defer func() { _ = inspector.Close() }()
		return cli.NewJobsCLI(nil, inspector).StatsCommand(ctx, os.Stdout, os.Stderr)
	default:
		fmt.Fprintln(os.Stderr, usage)
		return 2
	}
}

func parseSourceList(raw string) ([]dataset.Source, error) {
	if strings.TrimSpace(raw) == "" {
		return nil, nil
	}
	var out []dataset.Source
	for _, name := range strings.Split(raw, ",") {
		src, err := dataset.ParseSource(strings.TrimSpace(name))
		if err != nil {
			return nil, err
		}
		out = append(out, src)
	}
	return out, nil
}

func snapshotCheck(ctx context.Context, cfg *app.Config, args []string) int {
	fs := flag.NewFlagSet("snapshot check", flag.ContinueOnError)
	jsonOut := fs.Bool("json", false, "print the report as JSON")
	sources := fs.String("source", "", "comma separated sources, default all")
	if err := fs.Parse(args); err != nil {
		return 2
	}
	list, err := parseSourceList(*sources)
	if err != nil {
		fmt.Fprintf(os.Stderr, "snapshot check: %v\n", err)
		return 2
	}
	provider, err := app.NewSnapshotProvider(cfg, app.NewLogger(cfg))
	if err != nil {
		fmt.Fprintf(os.Stderr, "snapshot check: %v\n", err)
		return 1
	}
	return cli.NewSnapshotCLI(provider).CheckCommand(ctx, cli.SnapshotCheckOptions{
		Sources:    list,
		JSONOutput: *jsonOut,
	})
}

func usersAdd(ctx context.Context, cfg *app.Config, args []string) int {
	fs := flag.NewFlagSet("users add", flag.ContinueOnError)
	opts := cli.UserAddOptions{}
	fs.StringVar(&opts.Username, "username", "", "login name")
	fs.StringVar(&opts.Name, "name", "", "display name")
	fs.StringVar(&opts.Role, "role", auth.RoleUser, "admin or user")
	fs.StringVar(&opts.Password, "password", "", "initial password")
	if err := fs.Parse(args); err != nil {
		return 2
	}
	if cfg.AuthBackend != app.AuthSQLite {
		fmt.Fprintf(os.Stderr, "users add: only the sqlite backend is writable (AUTH_BACKEND=%s); use `tablero users hash` for %s\n", cfg.AuthBackend, cfg.AuthUsersFile)
		return 1
	}
	repo, err := auth.OpenSQLite(cfg.SQLitePath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "users add: %v\n", err)
		return 1
	}
	defer func() { _ = repo.Close() }()
	return cli.NewUsersCLI(repo).AddCommand(ctx, opts)
}

func jobsRefresh(ctx context.Context, cfg *app.Config, args []string) int {
	fs := flag.NewFlagSet("jobs refresh", flag.ContinueOnError)
	sources := fs.String("source", "", "comma separated sources, default all")
	if err := fs.Parse(args); err != nil {
		return 2
	}
	list, err := parseSourceList(*sources)
	if err != nil {
		fmt.Fprintf(os.Stderr, "jobs refresh: %v\n", err)
		return 2
	}
	names := make([]string, 0, len(list))
	for _, s := range list {
		names = append(names, string(s))
	}
	redisOpt, err := app.AsynqRedis(cfg)
	if err != nil {
		fmt.Fprintf(os.Stderr, "jobs refresh: %v\n", err)
		return 1
	}
	client, err := jobs.NewClient(redisOpt)
	if err != nil {
		fmt.Fprintf(os.Stderr, "jobs refresh: %v\n", err)
		return 1
	}
	defer func() {
		if err := client.Close(); err != nil {
			slog.Default().Warn("asynq client close", slog.Any("error", err))
		}
	}()
	return cli.NewJobsCLI(client, nil).RefreshCommand(ctx, names, os.Stdout, os.Stderr)
}
