// submodule cmd contains command definitions
package main

import "github.com/urfave/cli/v3"

func jsonFlags() []cli.Flag {
	return []cli.Flag{
		&cli.BoolFlag{
			Name:  "json",
			Usage: "Output raw JSON",
		},
		&cli.BoolFlag{
			Name:  "pretty",
			Usage: "Pretty-print JSON output",
			Value: true,
		},
	}
}

func bookFlags(required bool) []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{Name: "title", Aliases: []string{"t"}, Usage: "Book title", Required: required},
		&cli.StringFlag{Name: "author", Aliases: []string{"a"}, Usage: "Book author", Required: required},
		&cli.StringFlag{Name: "cover", Usage: "Cover image URL", Required: required},
		&cli.StringFlag{Name: "description", Aliases: []string{"d"}, Usage: "Short description"},
		&cli.StringFlag{Name: "genre", Aliases: []string{"g"}, Usage: "Genre"},
		&cli.StringFlag{Name: "isbn", Usage: "ISBN"},
		&cli.IntFlag{Name: "year", Usage: "Year of publication"},
		&cli.StringFlag{Name: "status", Aliases: []string{"s"}, Usage: "Available or Loaned"},
	}
}

// setupCommand creates the config file and the local database.
func setupCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "setup",
		Usage: "Create config.toml and initialize the database",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "config",
				Aliases: []string{"c"},
				Usage:   "Path to configuration file",
				Value:   "config.toml",
			},
			&cli.StringFlag{Name: "api-url", Usage: "Catalog API base URL to store in the config"},
			&cli.StringFlag{Name: "mode", Usage: "collections or favorites"},
		},
		Action: r.Setup,
	}
}

// authCommand handles account and session operations
func authCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "auth",
		Usage: "Sign up, sign in and manage the session",
		Commands: []*cli.Command{
			{
				Name:      "signup",
				Usage:     "Register a new account",
				ArgsUsage: "<username>",
				Arguments: []cli.Argument{&cli.StringArg{Name: "username"}},
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "email", Aliases: []string{"e"}, Usage: "Email address for the confirmation code", Required: true},
				},
				Action: r.AuthSignup,
			},
			{
				Name:      "verify",
				Usage:     "Confirm a registration with the emailed code",
				ArgsUsage: "<username> <code>",
				Arguments: []cli.Argument{
					&cli.StringArg{Name: "username"},
					&cli.StringArg{Name: "code"},
				},
				Action: r.AuthVerify,
			},
			{
				Name:      "login",
				Usage:     "Sign in and remember the session",
				ArgsUsage: "[username]",
				Arguments: []cli.Argument{&cli.StringArg{Name: "username"}},
				Action:    r.AuthLogin,
			},
			{
				Name:   "logout",
				Usage:  "Sign out and forget the session",
				Action: r.AuthLogout,
			},
			{
				Name:   "status",
				Usage:  "Show the current session",
				Flags:  jsonFlags(),
				Action: r.AuthStatus,
			},
		},
	}
}

// booksCommand handles catalog operations
func booksCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:    "books",
		Aliases: []string{"b"},
		Usage:   "Browse and edit the catalog",
		Commands: []*cli.Command{
			{
				Name:  "list",
				Usage: "List books, optionally filtered",
				Flags: append([]cli.Flag{
					&cli.StringFlag{Name: "search", Aliases: []string{"q"}, Usage: "Match title, author or ISBN"},
					&cli.StringFlag{Name: "genre", Aliases: []string{"g"}, Usage: "Only this genre"},
					&cli.StringFlag{Name: "status", Aliases: []string{"s"}, Usage: "Only Available or Loaned books"},
				}, jsonFlags()...),
				Action: r.BooksList,
			},
			{
				Name:      "show",
				Usage:     "Show one book and what you can do with it",
				ArgsUsage: "<id>",
				Arguments: []cli.Argument{&cli.StringArg{Name: "id"}},
				Flags:     jsonFlags(),
				Action:    r.BooksShow,
			},
			{
				Name:   "add",
				Usage:  "Add a book to the catalog",
				Flags:  bookFlags(true),
				Action: r.BooksAdd,
			},
			{
				Name:      "edit",
				Usage:     "Change fields of a book",
				ArgsUsage: "<id>",
				Arguments: []cli.Argument{&cli.StringArg{Name: "id"}},
				Flags:     bookFlags(false),
				Action:    r.BooksEdit,
			},
			{
				Name:      "delete",
				Usage:     "Remove a book from the catalog",
				ArgsUsage: "<id>",
				Arguments: []cli.Argument{&cli.StringArg{Name: "id"}},
				Flags: []cli.Flag{
					&cli.BoolFlag{Name: "yes", Aliases: []string{"y"}, Usage: "Skip the confirmation prompt"},
				},
				Action: r.BooksDelete,
			},
			{
				Name:      "cover",
				Usage:     "Open a book's cover image in the browser",
				ArgsUsage: "<id>",
				Arguments: []cli.Argument{&cli.StringArg{Name: "id"}},
				Flags: []cli.Flag{
					&cli.BoolFlag{Name: "print", Usage: "Print the URL instead of opening it"},
				},
				Action: r.BooksCover,
			},
		},
	}
}

// favoritesCommand handles favorites-mode membership
func favoritesCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:    "favorites",
		Aliases: []string{"fav"},
		Usage:   "Manage your favorite books",
		Commands: []*cli.Command{
			{
				Name:   "list",
				Usage:  "List your favorite books",
				Flags:  jsonFlags(),
				Action: r.FavoritesList,
			},
			{
				Name:      "toggle",
				Usage:     "Mark or unmark a book as favorite",
				ArgsUsage: "<book-id>",
				Arguments: []cli.Argument{&cli.StringArg{Name: "id"}},
				Action:    r.FavoritesToggle,
			},
		},
	}
}

// listsCommand handles collections-mode reading lists
func listsCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:    "lists",
		Aliases: []string{"l"},
		Usage:   "Manage your reading lists",
		Commands: []*cli.Command{
			{
				Name:   "list",
				Usage:  "List your reading lists",
				Flags:  jsonFlags(),
				Action: r.ListsList,
			},
			{
				Name:      "create",
				Usage:     "Create an empty reading list",
				ArgsUsage: "<name>",
				Arguments: []cli.Argument{&cli.StringArg{Name: "name"}},
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "description", Aliases: []string{"d"}, Usage: "List description"},
				},
				Action: r.ListsCreate,
			},
			{
				Name:      "show",
				Usage:     "Show a reading list and its books",
				ArgsUsage: "<list-id>",
				Arguments: []cli.Argument{&cli.StringArg{Name: "id"}},
				Flags:     jsonFlags(),
				Action:    r.ListsShow,
			},
			{
				Name:      "add",
				Usage:     "Add a book to a reading list",
				ArgsUsage: "<list-id> <book-id>",
				Arguments: []cli.Argument{
					&cli.StringArg{Name: "list"},
					&cli.StringArg{Name: "book"},
				},
				Action: r.ListsAdd,
			},
			{
				Name:      "remove",
				Usage:     "Remove a book from a reading list",
				ArgsUsage: "<list-id> <book-id>",
				Arguments: []cli.Argument{
					&cli.StringArg{Name: "list"},
					&cli.StringArg{Name: "book"},
				},
				Action: r.ListsRemove,
			},
			{
				Name:      "delete",
				Usage:     "Delete a reading list",
				ArgsUsage: "<list-id>",
				Arguments: []cli.Argument{&cli.StringArg{Name: "id"}},
				Flags: []cli.Flag{
					&cli.BoolFlag{Name: "yes", Aliases: []string{"y"}, Usage: "Skip the confirmation prompt"},
				},
				Action: r.ListsDelete,
			},
			{
				Name:      "pick",
				Usage:     "Show which of your lists hold a book, optionally toggling one",
				ArgsUsage: "<book-id>",
				Arguments: []cli.Argument{&cli.StringArg{Name: "book"}},
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "toggle", Usage: "List id to add the book to or remove it from"},
				},
				Action: r.ListsPick,
			},
		},
	}
}

// adminCommand handles administrator views
func adminCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "admin",
		Usage: "Administrator tools",
		Commands: []*cli.Command{
			{
				Name:   "dashboard",
				Usage:  "Show catalog totals and every user's reading lists",
				Flags:  jsonFlags(),
				Action: r.AdminDashboard,
			},
		},
	}
}

// chatCommand sends one message to the library assistant
func chatCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:      "chat",
		Usage:     "Ask the library assistant",
		ArgsUsage: "<message...>",
		Action:    r.Chat,
	}
}

// catalogCommand handles bulk operations
func catalogCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "catalog",
		Usage: "Bulk export and import",
		Commands: []*cli.Command{
			{
				Name:  "export",
				Usage: "Export the catalog to files",
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "format", Aliases: []string{"f"}, Usage: "json, csv, markdown or txt", Value: "json"},
					&cli.StringFlag{Name: "output", Aliases: []string{"o"}, Usage: "Output directory", Value: "./export"},
					&cli.BoolFlag{Name: "lists", Usage: "Include reading lists"},
					&cli.BoolFlag{Name: "covers", Usage: "Download cover images"},
					&cli.IntFlag{Name: "workers", Usage: "Concurrent cover downloads", Value: 4},
					&cli.FloatFlag{Name: "rate", Usage: "Cover downloads per second", Value: 5},
				},
				Action: r.CatalogExport,
			},
			{
				Name:      "import",
				Usage:     "Add books from a CSV file",
				ArgsUsage: "<file.csv>",
				Arguments: []cli.Argument{&cli.StringArg{Name: "path"}},
				Flags: []cli.Flag{
					&cli.IntFlag{Name: "workers", Usage: "Concurrent requests", Value: 4},
					&cli.FloatFlag{Name: "rate", Usage: "Requests per second", Value: 5},
					&cli.BoolFlag{Name: "dry-run", Usage: "Parse and validate only"},
				},
				Action: r.CatalogImport,
			},
			{
				Name:  "jobs",
				Usage: "Show recorded import jobs",
				Flags: append([]cli.Flag{
					&cli.IntFlag{Name: "limit", Usage: "Maximum number of jobs", Value: 20},
					&cli.StringFlag{Name: "status", Usage: "Only jobs with this status"},
				}, jsonFlags()...),
				Action: r.CatalogJobs,
			},
		},
	}
}

// apiCommand handles direct API calls
func apiCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "api",
		Usage: "Direct calls to the catalog API",
		Commands: []*cli.Command{
			{
				Name:      "get",
				Usage:     "Direct GET, prints raw JSON",
				ArgsUsage: "<path>",
				Arguments: []cli.Argument{&cli.StringArg{Name: "path"}},
				Flags: []cli.Flag{
					&cli.BoolFlag{
						Name:  "json",
						Usage: "Output compact JSON",
					},
				},
				Action: r.APIGet,
			},
			{
				Name:      "post",
				Usage:     "Direct POST with JSON body",
				ArgsUsage: "<path>",
				Arguments: []cli.Argument{&cli.StringArg{Name: "path"}},
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:     "data",
						Aliases:  []string{"d"},
						Usage:    "JSON body to send",
						Required: true,
					},
				},
				Action: r.APIPost,
			},
		},
	}
}

// tuiCommand returns the top-level TUI command.
func tuiCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:    "tui",
		Aliases: []string{"interactive", "ui"},
		Usage:   "Launch the interactive terminal UI",
		Action:  r.TUI,
	}
}
