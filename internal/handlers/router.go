package handlers

import (
	"net/http"

	"github.com/gin-contrib/gzip"
	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"github.com/synesthesie/catalog/internal/config"
	"github.com/synesthesie/catalog/internal/middleware"
	"github.com/synesthesie/catalog/internal/services"
)

// Services bundles what the router needs to build its handlers.
type Services struct {
	Auth     *services.AuthService
	Users    *services.UserService
	Artists  *services.ArtistService
	Albums   *services.AlbumService
	Songs    *services.SongService
	Playlist *services.PlaylistService
	Storage  *services.StorageService
}

// NewRouter builds the HTTP router. redisClient may be nil, the limiters
// then let every request through.
func NewRouter(cfg *config.Config, redisClient *redis.Client, svc Services) *gin.Engine {
	if cfg.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.New()
	router.Use(middleware.RequestLogger())
	router.Use(gin.Recovery())
	router.Use(middleware.CORS(cfg))
	router.Use(gzip.Gzip(gzip.DefaultCompression))
	router.Use(middleware.RateLimiter(redisClient, cfg))
	router.MaxMultipartMemory = cfg.MaxUploadBytes()

	authHandler := NewAuthHandler(svc.Auth)
	userHandler := NewUserHandler(svc.Users, svc.Storage)
	artistHandler := NewArtistHandler(svc.Artists, svc.Storage)
	albumHandler := NewAlbumHandler(svc.Albums, svc.Storage)
	songHandler := NewSongHandler(svc.Songs, svc.Storage)
	playlistHandler := NewPlaylistHandler(svc.Playlist, svc.Storage)

	auth := middleware.Auth(svc.Auth)
	optionalAuth := middleware.OptionalAuth(svc.Auth)
	adminOnly := middleware.AdminOnly()
	uploadLimit := middleware.UploadRateLimit(redisClient, cfg)

	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "healthy"})
	})

	api := router.Group("/api")
	{
		users := api.Group("/users")
		{
			users.POST("/register", authHandler.Register)
			users.POST("/login", authHandler.Login)
			users.POST("/logout", auth, authHandler.Logout)
			users.GET("/profile", auth, userHandler.GetProfile)
			users.PUT("/profile", auth, uploadLimit, userHandler.UpdateProfile)
			users.PUT("/liked-song/:id", auth, userHandler.ToggleLikeSong())
			users.PUT("/liked-album/:id", auth, userHandler.ToggleLikeAlbum())
			users.PUT("/follow-artist/:id", auth, userHandler.ToggleFollowArtist())
			users.PUT("/follow-playlist/:id", auth, userHandler.ToggleFollowPlaylist())
			users.GET("", auth, adminOnly, userHandler.ListUsers)
		}

		artists := api.Group("/artists")
		{
			artists.GET("", artistHandler.List)
			artists.GET("/topartists", artistHandler.Top)
			artists.GET("/:id/top-songs", artistHandler.TopSongs)
			artists.GET("/:id", artistHandler.Get)
			artists.POST("", auth, adminOnly, uploadLimit, artistHandler.Create)
			artists.PUT("/:id", auth, adminOnly, uploadLimit, artistHandler.Update)
			artists.DELETE("/:id", auth, adminOnly, artistHandler.Delete)
		}

		albums := api.Group("/albums")
		{
			albums.GET("", albumHandler.List)
			albums.GET("/new-releases", albumHandler.NewReleases)
			albums.GET("/:id", albumHandler.Get)
			albums.POST("", auth, adminOnly, uploadLimit, albumHandler.Create)
			albums.PUT("/:id", auth, adminOnly, uploadLimit, albumHandler.Update)
			albums.DELETE("/:id", auth, adminOnly, albumHandler.Delete)
			albums.POST("/:id/add-songs", auth, adminOnly, albumHandler.AddSongs)
			albums.DELETE("/:id/remove-songs/:songId", auth, adminOnly, albumHandler.RemoveSong)
		}

		songs := api.Group("/songs")
		{
			songs.GET("", songHandler.List)
			songs.GET("/top", songHandler.Top)
			songs.GET("/new-releases", songHandler.NewReleases)
			songs.GET("/:id", songHandler.Get)
			songs.POST("", auth, adminOnly, uploadLimit, songHandler.Create)
			songs.PUT("/:id", auth, adminOnly, uploadLimit, songHandler.Update)
			songs.DELETE("/:id", auth, adminOnly, songHandler.Delete)
		}

		playlists := api.Group("/playlists")
		{
			playlists.GET("", playlistHandler.List)
			playlists.GET("/featured", playlistHandler.Featured)
			playlists.GET("/user/me", auth, playlistHandler.Mine)
			playlists.GET("/:id", optionalAuth, playlistHandler.Get)
			playlists.POST("", auth, uploadLimit, playlistHandler.Create)
			playlists.PUT("/:id", auth, uploadLimit, playlistHandler.Update)
			playlists.DELETE("/:id", auth, playlistHandler.Delete)
			playlists.PUT("/:id/add-songs", auth, playlistHandler.AddSongs)
			playlists.PUT("/:id/remove-songs/:songId", auth, playlistHandler.RemoveSong)
			playlists.PUT("/:id/add-collaborator", auth, playlistHandler.AddCollaborator)
			playlists.PUT("/:id/remove-collaborator", auth, playlistHandler.RemoveCollaborator)
		}
	}

	router.NoRoute(NoRoute)
	return router
}
