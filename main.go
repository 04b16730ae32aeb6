package main

import (
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/charmbracelet/log"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cache"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/utils"
	"github.com/gofiber/storage/redis/v3"
	"github.com/urfave/cli/v3"
	"golang.org/x/crypto/bcrypt"

	"github.com/etsusei/NeteaseCloudMusicApi2/config"
	"github.com/etsusei/NeteaseCloudMusicApi2/database"
	"github.com/etsusei/NeteaseCloudMusicApi2/handlers"
	"github.com/etsusei/NeteaseCloudMusicApi2/middleware"
	"github.com/etsusei/NeteaseCloudMusicApi2/proxy"
	"github.com/etsusei/NeteaseCloudMusicApi2/resolver"
	"github.com/etsusei/NeteaseCloudMusicApi2/store"
)

func main() {
	logger := log.NewWithOptions(os.Stderr, log.Options{ReportTimestamp: true})

	configFlag := &cli.StringFlag{
		Name:  "config",
		Value: "config.toml",
		Usage: "path to the TOML configuration file",
	}

	app := &cli.Command{
		Name:  "music-gateway",
		Usage: "Netease music URL gateway with user playlists",
		Commands: []*cli.Command{
			{
				Name:  "serve",
				Usage: "Run the HTTP gateway",
				Flags: []cli.Flag{configFlag},
				Action: func(ctx context.Context, cmd *cli.Command) error {
					return serve(ctx, cmd.String("config"), logger)
				},
			},
			{
				Name:  "migrate",
				Usage: "Apply database migrations",
				Flags: []cli.Flag{configFlag},
				Action: func(ctx context.Context, cmd *cli.Command) error {
					cfg, err := config.Load(cmd.String("config"))
					if err != nil {
						return err
					}
					return database.Migrate(cfg.Database.URL, logger)
				},
			},
			userCommand(configFlag, logger),
		},
	}

	if err := app.Run(context.Background(), os.Args); err != nil {
		logger.Fatalf("application error: %v", err)
	}
}

// cacheMiddleware builds the response cache for the music lookup endpoints.
// Entries are keyed on the full request URL: the track id lives in the query
// string, so keying on the path alone would hand one track's URL to every
// other track for the lifetime of the entry.
func cacheMiddleware(storage fiber.Storage) fiber.Handler {
	return cache.New(cache.Config{
		Next:       func(c *fiber.Ctx) bool { return strings.HasPrefix(c.Path(), "/api/") },
		Expiration: 2 * time.Minute,
		KeyGenerator: func(c *fiber.Ctx) string {
			return utils.CopyString(c.OriginalURL())
		},
		Storage: storage,
	})
}

func serve(ctx context.Context, configPath string, logger *log.Logger) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}

	pool, err := database.Connect(ctx, cfg.Database.URL, logger)
	if err != nil {
		return err
	}
	defer pool.Close()

	db := store.NewPool(pool)
	users := store.NewUserStore(db)
	playlists := store.NewPlaylistStore(db)

	vip := resolver.ParseCookies(cfg.Netease.VIPCookie)
	if len(vip) > 0 {
		logger.Info("VIP cookie loaded")
	} else {
		logger.Warn("no VIP cookie configured, some tracks may be limited to previews")
	}

	timeout := time.Duration(cfg.Netease.ResolveTimeoutSeconds) * time.Second
	chain := resolver.NewChain(logger, timeout,
		resolver.NewNeteaseResolver(cfg.Netease.APIBase, nil),
		resolver.NewFallbackResolver(cfg.Netease.FallbackURL, nil),
	)
	fetcher := proxy.NewFetcher(nil, "https://mu-jie.cc/", proxy.DefaultMaxRedirects)

	h := handlers.New(cfg, logger, users, playlists, chain, fetcher)
	authRequired := middleware.AuthRequired(cfg.Auth.JWTSecret)

	app := fiber.New(fiber.Config{DisableStartupMessage: true})

	app.Use(cors.New(cors.Config{
		AllowOriginsFunc: func(string) bool { return true },
		AllowCredentials: true,
		AllowHeaders:     "X-Requested-With,Content-Type,Authorization",
		AllowMethods:     "PUT,POST,GET,DELETE,OPTIONS",
	}))
	app.Use(middleware.CookieContext(vip))

	// Response cache for the music lookup endpoints only; the user API must
	// never be cached.
	app.Use(cacheMiddleware(redis.New(redis.Config{
		Host: cfg.Redis.Host,
		Port: cfg.Redis.Port,
	})))

	app.Get("/proxy", h.Proxy)

	music := app.Group("/music")
	music.Get("/url", h.MusicURL)
	music.Get("/download", h.MusicDownload)

	api := app.Group("/api")
	api.Post("/auth/login", h.Login)
	api.Get("/auth/me", authRequired, h.Me)
	api.Put("/auth/profile", authRequired, h.UpdateProfile)

	pl := api.Group("/playlists", authRequired)
	pl.Get("/", h.ListPlaylists)
	pl.Post("/", h.CreatePlaylist)
	pl.Delete("/:id", h.DeletePlaylist)
	pl.Get("/:id/songs", h.PlaylistSongs)
	pl.Post("/:id/songs", h.AddPlaylistSong)
	pl.Delete("/:id/songs/:songId", h.RemovePlaylistSong)

	export := api.Group("/export", authRequired)
	export.Get("/", h.ExportPlaylists)
	export.Post("/", h.ImportPlaylists)

	logger.Info("server running", "addr", cfg.Addr())
	return app.Listen(cfg.Addr())
}

func userCommand(configFlag *cli.StringFlag, logger *log.Logger) *cli.Command {
	withUsers := func(ctx context.Context, cmd *cli.Command, fn func(*store.UserStore) error) error {
		cfg, err := config.Load(cmd.String("config"))
		if err != nil {
			return err
		}
		pool, err := database.Connect(ctx, cfg.Database.URL, logger)
		if err != nil {
			return err
		}
		defer pool.Close()
		return fn(store.NewUserStore(store.NewPool(pool)))
	}

	return &cli.Command{
		Name:  "user",
		Usage: "Manage user accounts",
		Commands: []*cli.Command{
			{
				Name:      "add",
				Usage:     "Create a user account",
				ArgsUsage: "<username> <password>",
				Flags: []cli.Flag{
					configFlag,
					&cli.BoolFlag{Name: "admin", Usage: "grant admin privileges"},
				},
				Action: func(ctx context.Context, cmd *cli.Command) error {
					username, password := cmd.Args().Get(0), cmd.Args().Get(1)
					if username == "" || password == "" {
						return fmt.Errorf("usage: user add <username> <password> [--admin]")
					}
					return withUsers(ctx, cmd, func(users *store.UserStore) error {
						if _, err := users.GetByUsername(ctx, username); err == nil {
							return fmt.Errorf("user %q already exists", username)
						}
						hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
						if err != nil {
							return fmt.Errorf("failed to hash password: %w", err)
						}
						id, err := users.Create(ctx, username, string(hash), cmd.Bool("admin"))
						if err != nil {
							return err
						}
						logger.Info("user created", "id", id, "username", username, "admin", cmd.Bool("admin"))
						return nil
					})
				},
			},
			{
				Name:  "list",
				Usage: "List all user accounts",
				Flags: []cli.Flag{configFlag},
				Action: func(ctx context.Context, cmd *cli.Command) error {
					return withUsers(ctx, cmd, func(users *store.UserStore) error {
						all, err := users.List(ctx)
						if err != nil {
							return err
						}
						for _, u := range all {
							role := ""
							if u.IsAdmin {
								role = " (admin)"
							}
							fmt.Printf("[%d] %s%s - %s\n", u.ID, u.Username, role, u.CreatedAt.Format("2006-01-02"))
						}
						fmt.Printf("Total: %d users\n", len(all))
						return nil
					})
				},
			},
			{
				Name:      "reset-password",
				Usage:     "Reset a user's password",
				ArgsUsage: "<username> <new_password>",
				Flags:     []cli.Flag{configFlag},
				Action: func(ctx context.Context, cmd *cli.Command) error {
					username, password := cmd.Args().Get(0), cmd.Args().Get(1)
					if username == "" || password == "" {
						return fmt.Errorf("usage: user reset-password <username> <new_password>")
					}
					return withUsers(ctx, cmd, func(users *store.UserStore) error {
						u, err := users.GetByUsername(ctx, username)
						if err != nil {
							return fmt.Errorf("user %q not found", username)
						}
						hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
						if err != nil {
							return fmt.Errorf("failed to hash password: %w", err)
						}
						if err := users.UpdatePassword(ctx, u.ID, string(hash)); err != nil {
							return err
						}
						logger.Info("password reset", "username", username)
						return nil
					})
				},
			},
		},
	}
}
