package server

import (
	"context"
	"net/http"

	"cinescope/internal/service"

	khttp "github.com/go-kratos/kratos/v2/transport/http"
)

// Operation names, used by the logging and selector middleware.
const (
	OperationRegister            = "/cinescope.v1.AuthService/Register"
	OperationLogin               = "/cinescope.v1.AuthService/Login"
	OperationMe                  = "/cinescope.v1.AuthService/Me"
	OperationUpdateUser          = "/cinescope.v1.AuthService/UpdateUser"
	OperationListMovies          = "/cinescope.v1.MovieService/ListMovies"
	OperationSearchMovies        = "/cinescope.v1.MovieService/SearchMovies"
	OperationListFeatured        = "/cinescope.v1.MovieService/ListFeatured"
	OperationListTrending        = "/cinescope.v1.MovieService/ListTrending"
	OperationListGenres          = "/cinescope.v1.MovieService/ListGenres"
	OperationTopRated            = "/cinescope.v1.MovieService/TopRated"
	OperationGetMovie            = "/cinescope.v1.MovieService/GetMovie"
	OperationRefreshMovie        = "/cinescope.v1.MovieService/RefreshMovie"
	OperationCreateReview        = "/cinescope.v1.ReviewService/CreateReview"
	OperationUpdateMovieReview   = "/cinescope.v1.ReviewService/UpdateMovieReview"
	OperationUpdateReview        = "/cinescope.v1.ReviewService/UpdateReview"
	OperationDeleteReview        = "/cinescope.v1.ReviewService/DeleteReview"
	OperationListMovieReviews    = "/cinescope.v1.ReviewService/ListMovieReviews"
	OperationListUserReviews     = "/cinescope.v1.ReviewService/ListUserReviews"
	OperationListWatchlist       = "/cinescope.v1.WatchlistService/ListWatchlist"
	OperationAddToWatchlist      = "/cinescope.v1.WatchlistService/AddToWatchlist"
	OperationRemoveFromWatchlist = "/cinescope.v1.WatchlistService/RemoveFromWatchlist"
	OperationToggleWatchlist     = "/cinescope.v1.WatchlistService/ToggleWatchlist"
	OperationCheckWatchlist      = "/cinescope.v1.WatchlistService/CheckWatchlist"
)

var authenticatedOperations = []string{
	OperationMe,
	OperationUpdateUser,
	OperationRefreshMovie,
	OperationCreateReview,
	OperationUpdateMovieReview,
	OperationUpdateReview,
	OperationDeleteReview,
	OperationListUserReviews,
	OperationListWatchlist,
	OperationAddToWatchlist,
	OperationRemoveFromWatchlist,
	OperationToggleWatchlist,
	OperationCheckWatchlist,
}

var adminOperations = []string{
	OperationRefreshMovie,
}

type binder func(ctx khttp.Context, v any) error

var (
	bindBody  binder = khttp.Context.Bind
	bindQuery binder = khttp.Context.BindQuery
	bindVars  binder = khttp.Context.BindVars
)

// handle adapts a service method to a kratos route: it binds the request,
// runs the server middleware for operation and encodes the reply.
func handle[Req, Reply any](operation string, call func(context.Context, *Req) (Reply, error), binders ...binder) khttp.HandlerFunc {
	return func(ctx khttp.Context) error {
		var in Req
		for _, bind := range binders {
			if err := bind(ctx, &in); err != nil {
				return err
			}
		}
		khttp.SetOperation(ctx, operation)
		h := ctx.Middleware(func(ctx context.Context, req any) (any, error) {
			return call(ctx, req.(*Req))
		})
		out, err := h(ctx, &in)
		if err != nil {
			return err
		}
		return ctx.Result(http.StatusOK, out)
	}
}

// registerRoutes mounts the REST API. Fixed paths are registered before
// the parameterized paths that would otherwise capture them.
func registerRoutes(
	srv *khttp.Server,
	authSvc *service.AuthService,
	movieSvc *service.MovieService,
	reviewSvc *service.ReviewService,
	watchlistSvc *service.WatchlistService,
) {
	r := srv.Route("/")

	r.GET("/healthz", func(ctx khttp.Context) error {
		return ctx.JSON(http.StatusOK, map[string]string{"status": "ok"})
	})

	r.POST("/api/auth/register", handle(OperationRegister, authSvc.Register, bindBody))
	r.POST("/api/auth/login", handle(OperationLogin, authSvc.Login, bindBody))
	r.GET("/api/auth/me", handle(OperationMe, authSvc.Me))
	r.PUT("/api/auth/user", handle(OperationUpdateUser, authSvc.UpdateUser, bindBody))

	r.GET("/api/movies", handle(OperationListMovies, movieSvc.ListMovies, bindQuery))
	r.GET("/api/movies/featured", handle(OperationListFeatured, movieSvc.ListFeatured))
	r.GET("/api/movies/trending", handle(OperationListTrending, movieSvc.ListTrending))
	r.GET("/api/movies/genres", handle(OperationListGenres, movieSvc.ListGenres))
	r.GET("/api/movies/top-rated", handle(OperationTopRated, movieSvc.TopRated, bindQuery))
	r.GET("/api/movies/search", handle(OperationSearchMovies, movieSvc.SearchMovies, bindQuery))
	r.GET("/api/movies/{id}", handle(OperationGetMovie, movieSvc.GetMovie, bindVars))
	r.POST("/api/movies/{id}/refresh", handle(OperationRefreshMovie, movieSvc.RefreshMovie, bindVars))

	r.GET("/api/reviews/user", handle(OperationListUserReviews, reviewSvc.ListUserReviews))
	r.GET("/api/reviews/movie/{movieId}", handle(OperationListMovieReviews, reviewSvc.ListMovieReviews, bindVars))
	r.PUT("/api/reviews/movie/{movieId}", handle(OperationUpdateMovieReview, reviewSvc.UpdateMovieReview, bindBody, bindVars))
	r.POST("/api/reviews", handle(OperationCreateReview, reviewSvc.CreateReview, bindBody))
	r.PUT("/api/reviews/{reviewId}", handle(OperationUpdateReview, reviewSvc.UpdateReview, bindBody, bindVars))
	r.DELETE("/api/reviews/{reviewId}", handle(OperationDeleteReview, reviewSvc.DeleteReview, bindVars))

	r.GET("/api/watchlist", handle(OperationListWatchlist, watchlistSvc.ListWatchlist))
	r.GET("/api/watchlist/check/{movieId}", handle(OperationCheckWatchlist, watchlistSvc.CheckWatchlist, bindVars))
	r.POST("/api/watchlist/{movieId}/toggle", handle(OperationToggleWatchlist, watchlistSvc.ToggleWatchlist, bindVars))
	r.POST("/api/watchlist/{movieId}", handle(OperationAddToWatchlist, watchlistSvc.AddToWatchlist, bindVars))
	r.DELETE("/api/watchlist/{movieId}", handle(OperationRemoveFromWatchlist, watchlistSvc.RemoveFromWatchlist, bindVars))
}
