package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/bytedance/sonic"
	"github.com/natefinch/atomic"
	"github.com/urfave/cli/v2"

	"github.com/GriffinCanCode/docbridge/internal/client"
	"github.com/GriffinCanCode/docbridge/internal/domain/transcode"
)

const exitToolFailure = 2

func newApp(stdout io.Writer) *cli.App {
	return &cli.App{
		Name:      "safctl",
		Usage:     "drive a docbridge server from the command line",
		Writer:    stdout,
		ErrWriter: os.Stderr,
		// main decides how to exit
		ExitErrHandler: func(*cli.Context, error) {},
		// --param values may hold JSON with commas
		DisableSliceFlagSeparator: true,
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "server",
				Aliases: []string{"s"},
				Value:   "http://127.0.0.1:8000",
				EnvVars: []string{"DOCBRIDGE_URL"},
				Usage:   "docbridge base URL",
			},
			&cli.DurationFlag{
				Name:  "timeout",
				Value: 5 * time.Minute,
				Usage: "per request timeout",
			},
			&cli.StringFlag{
				Name:  "app-id",
				Usage: "app id sent with tool calls",
			},
		},
		Commands: []*cli.Command{
			healthCommand(),
			servicesCommand(),
			callCommand(),
			infoCommand(),
			uriCommand(),
			readCommand(),
			writeCommand(),
			writeMediaCommand(),
			overwriteCommand(),
			deleteCommand(),
			mediaCommand(),
		},
	}
}

func newClient(c *cli.Context) *client.Client {
	cfg := client.DefaultConfig()
	cfg.Timeout = c.Duration("timeout")
	cl := client.New(c.String("server"), cfg)
	if id := c.String("app-id"); id != "" {
		cl.SetAppID(id)
	}
	return cl
}

func printJSON(c *cli.Context, v interface{}) error {
	out, err := sonic.ConfigStd.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	_, err = fmt.Fprintln(c.App.Writer, string(out))
	return err
}

// execute runs a tool and turns a failed result into exit code 2
func execute(c *cli.Context, toolID string, params map[string]interface{}) (map[string]interface{}, error) {
	res, err := newClient(c).Execute(c.Context, toolID, params)
	if err != nil {
		return nil, err
	}
	if !res.Success {
		msg := "failed"
		if res.Error != nil {
			msg = *res.Error
		}
		if res.Trace != "" {
			fmt.Fprintln(c.App.ErrWriter, res.Trace)
		}
		return nil, cli.Exit(fmt.Sprintf("%s: %s", res.Kind, msg), exitToolFailure)
	}
	return res.Data, nil
}

func executeAndPrint(c *cli.Context, toolID string, params map[string]interface{}) error {
	data, err := execute(c, toolID, params)
	if err != nil {
		return err
	}
	return printJSON(c, data)
}

func healthCommand() *cli.Command {
	return &cli.Command{
		Name:  "health",
		Usage: "show server health",
		Action: func(c *cli.Context) error {
			health, err := newClient(c).Health(c.Context)
			if err != nil {
				return err
			}
			return printJSON(c, health)
		},
	}
}

func servicesCommand() *cli.Command {
	return &cli.Command{
		Name:  "services",
		Usage: "list registered services and their tools",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "category", Usage: "documents, media or system"},
		},
		Action: func(c *cli.Context) error {
			services, err := newClient(c).Services(c.Context, c.String("category"))
			if err != nil {
				return err
			}
			for _, svc := range services {
				fmt.Fprintf(c.App.Writer, "%s\t%s\n", svc.ID, svc.Description)
				for _, tool := range svc.Tools {
					fmt.Fprintf(c.App.Writer, "  %s\n", tool.ID)
				}
			}
			return nil
		},
	}
}

func callCommand() *cli.Command {
	return &cli.Command{
		Name:      "call",
		Usage:     "execute any tool",
		ArgsUsage: "TOOL_ID",
		Flags: []cli.Flag{
			&cli.StringSliceFlag{Name: "param", Aliases: []string{"p"}, Usage: "key=value, value parsed as JSON when possible"},
			&cli.StringFlag{Name: "json", Usage: "all params as a JSON object"},
		},
		Action: func(c *cli.Context) error {
			if c.NArg() != 1 {
				return cli.Exit("call needs exactly one TOOL_ID", 1)
			}
			params, err := parseParams(c.String("json"), c.StringSlice("param"))
			if err != nil {
				return cli.Exit(err.Error(), 1)
			}
			return executeAndPrint(c, c.Args().First(), params)
		},
	}
}

// parseParams merges a JSON object with key=value pairs, pairs winning.
func parseParams(raw string, pairs []string) (map[string]interface{}, error) {
	params := make(map[string]interface{})
	if raw != "" {
		if err := sonic.ConfigStd.UnmarshalFromString(raw, &params); err != nil {
			return nil, fmt.Errorf("invalid --json: %w", err)
		}
	}
	for _, pair := range pairs {
		key, value, ok := strings.Cut(pair, "=")
		if !ok || key == "" {
			return nil, fmt.Errorf("invalid --param %q: want key=value", pair)
		}
		var decoded interface{}
		if err := sonic.ConfigStd.UnmarshalFromString(value, &decoded); err == nil {
			params[key] = decoded
		} else {
			params[key] = value
		}
	}
	return params, nil
}

func infoCommand() *cli.Command {
	return &cli.Command{
		Name:      "info",
		Usage:     "describe a document",
		ArgsUsage: "URI",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "path", Usage: "relative path below a tree URI"},
		},
		Action: func(c *cli.Context) error {
			params := map[string]interface{}{"uri": c.Args().First()}
			if p := c.String("path"); p != "" {
				params["path"] = p
			}
			return executeAndPrint(c, "documents.getInfo", params)
		},
	}
}

func uriCommand() *cli.Command {
	return &cli.Command{
		Name:      "uri",
		Usage:     "resolve a path below a tree to a document URI",
		ArgsUsage: "TREE_URI PATH",
		Action: func(c *cli.Context) error {
			if c.NArg() != 2 {
				return cli.Exit("uri needs TREE_URI and PATH", 1)
			}
			return executeAndPrint(c, "documents.getUri", map[string]interface{}{
				"uri":  c.Args().Get(0),
				"path": c.Args().Get(1),
			})
		},
	}
}

func readCommand() *cli.Command {
	return &cli.Command{
		Name:      "read",
		Usage:     "read a document",
		ArgsUsage: "URI",
		Flags: []cli.Flag{
			&cli.PathFlag{Name: "out", Aliases: []string{"o"}, Usage: "write content here instead of stdout"},
		},
		Action: func(c *cli.Context) error {
			data, err := execute(c, "documents.readFile", map[string]interface{}{"uri": c.Args().First()})
			if err != nil {
				return err
			}
			encoded, _ := data["data"].(string)
			if out := c.Path("out"); out != "" {
				if err := atomic.WriteFile(out, transcode.NewDecodeReader(encoded)); err != nil {
					return fmt.Errorf("write %s: %w", out, err)
				}
				return nil
			}
			_, err = transcode.Decode(c.App.Writer, strings.NewReader(encoded))
			return err
		},
	}
}

func fileData(path string) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", err
	}
	defer f.Close()

	fi, err := f.Stat()
	if err != nil {
		return "", err
	}
	data, _, err := transcode.EncodeToString(f, fi.Size())
	return data, err
}

var mimeFlag = &cli.StringFlag{Name: "mime", Usage: "content type, guessed from the extension when empty"}

func withMime(c *cli.Context, params map[string]interface{}) map[string]interface{} {
	if m := c.String("mime"); m != "" {
		params["mimeType"] = m
	}
	return params
}

func writeCommand() *cli.Command {
	return &cli.Command{
		Name:      "write",
		Usage:     "create a document in a tree, or write to a document URI",
		ArgsUsage: "URI FILE",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "path", Usage: "relative path below a tree URI"},
			mimeFlag,
		},
		Action: func(c *cli.Context) error {
			if c.NArg() != 2 {
				return cli.Exit("write needs URI and FILE", 1)
			}
			data, err := fileData(c.Args().Get(1))
			if err != nil {
				return err
			}
			params := map[string]interface{}{"uri": c.Args().Get(0), "data": data}
			if p := c.String("path"); p != "" {
				params["path"] = p
			}
			return executeAndPrint(c, "documents.writeFile", withMime(c, params))
		},
	}
}

func writeMediaCommand() *cli.Command {
	return &cli.Command{
		Name:      "write-media",
		Usage:     "add a file to the shared media library",
		ArgsUsage: "MEDIA_PATH FILE",
		Flags:     []cli.Flag{mimeFlag},
		Action: func(c *cli.Context) error {
			if c.NArg() != 2 {
				return cli.Exit("write-media needs MEDIA_PATH and FILE", 1)
			}
			data, err := fileData(c.Args().Get(1))
			if err != nil {
				return err
			}
			return executeAndPrint(c, "documents.writeMedia", withMime(c, map[string]interface{}{
				"path": c.Args().Get(0),
				"data": data,
			}))
		},
	}
}

func overwriteCommand() *cli.Command {
	return &cli.Command{
		Name:      "overwrite",
		Usage:     "replace the content of an existing document",
		ArgsUsage: "URI FILE",
		Action: func(c *cli.Context) error {
			if c.NArg() != 2 {
				return cli.Exit("overwrite needs URI and FILE", 1)
			}
			data, err := fileData(c.Args().Get(1))
			if err != nil {
				return err
			}
			return executeAndPrint(c, "documents.overwriteFile", map[string]interface{}{
				"uri":  c.Args().Get(0),
				"data": data,
			})
		},
	}
}

func deleteCommand() *cli.Command {
	return &cli.Command{
		Name:      "delete",
		Usage:     "delete a document",
		ArgsUsage: "URI",
		Action: func(c *cli.Context) error {
			return executeAndPrint(c, "documents.deleteFile", map[string]interface{}{"uri": c.Args().First()})
		},
	}
}

func mediaCommand() *cli.Command {
	return &cli.Command{
		Name:  "media",
		Usage: "shared media library",
		Subcommands: []*cli.Command{
			{
				Name:  "list",
				Usage: "list a media collection",
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "collection", Value: "images", Usage: "images, video, audio or downloads"},
				},
				Action: func(c *cli.Context) error {
					return executeAndPrint(c, "media.list", map[string]interface{}{"collection": c.String("collection")})
				},
			},
			{
				Name:  "scan",
				Usage: "rescan the media root",
				Action: func(c *cli.Context) error {
					return executeAndPrint(c, "media.scan", map[string]interface{}{})
				},
			},
		},
	}
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := newApp(os.Stdout).RunContext(ctx, os.Args); err != nil {
		if _, ok := err.(cli.ExitCoder); ok {
			cli.HandleExitCoder(err)
			return
		}
		fmt.Fprintln(os.Stderr, "safctl:", err)
		os.Exit(1)
	}
}
