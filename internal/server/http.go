package server

import (
	"net/http"

	"cinescope/internal/biz"
	"cinescope/internal/conf"
	"cinescope/internal/service"

	"github.com/go-kratos/kratos/v2/errors"
	"github.com/go-kratos/kratos/v2/log"
	"github.com/go-kratos/kratos/v2/middleware/logging"
	"github.com/go-kratos/kratos/v2/middleware/recovery"
	"github.com/go-kratos/kratos/v2/middleware/selector"
	khttp "github.com/go-kratos/kratos/v2/transport/http"
)

// statusResponse lets a reply pick its own success status, e.g. 201 for a
// created resource.
type statusResponse interface {
	HTTPStatus() int
}

func responseEncoder(w http.ResponseWriter, r *http.Request, v any) error {
	if sr, ok := v.(statusResponse); ok && sr.HTTPStatus() != 0 {
		w.WriteHeader(sr.HTTPStatus())
	}
	return khttp.DefaultResponseEncoder(w, r, v)
}

type errorBody struct {
	Error   string            `json:"error"`
	Details map[string]string `json:"details,omitempty"`
}

// errorEncoder renders {"error": message}. Server faults other than an
// unreachable catalog never expose their message.
func errorEncoder(w http.ResponseWriter, r *http.Request, err error) {
	se := errors.FromError(err)
	body := errorBody{Error: se.Message, Details: se.Metadata}
	if se.Code >= http.StatusInternalServerError && se.Reason != biz.ReasonUpstreamUnavailable {
		body = errorBody{Error: "internal server error"}
	}

	codec, _ := khttp.CodecForRequest(r, "Accept")
	data, mErr := codec.Marshal(body)
	if mErr != nil {
		w.WriteHeader(http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/"+codec.Name())
	w.WriteHeader(int(se.Code))
	_, _ = w.Write(data)
}

// NewHTTPServer new an HTTP server.
func NewHTTPServer(
	c *conf.Server,
	authUC *biz.AuthUseCase,
	authSvc *service.AuthService,
	movieSvc *service.MovieService,
	reviewSvc *service.ReviewService,
	watchlistSvc *service.WatchlistService,
	logger log.Logger,
) *khttp.Server {
	var opts = []khttp.ServerOption{
		khttp.Middleware(
			recovery.Recovery(),
			logging.Server(logger),
			selector.Server(AuthMiddleware(authUC)).
				Match(operationIn(authenticatedOperations...)).
				Build(),
			selector.Server(AdminMiddleware()).
				Match(operationIn(adminOperations...)).
				Build(),
			ValidationMiddleware(NewValidator()),
		),
		khttp.ResponseEncoder(responseEncoder),
		khttp.ErrorEncoder(errorEncoder),
	}
	if c.Http != nil {
		if c.Http.Network != "" {
			opts = append(opts, khttp.Network(c.Http.Network))
		}
		if c.Http.Addr != "" {
			opts = append(opts, khttp.Address(c.Http.Addr))
		}
		if c.Http.Timeout != nil {
			opts = append(opts, khttp.Timeout(c.Http.Timeout.AsDuration()))
		}
	}
	srv := khttp.NewServer(opts...)
	registerRoutes(srv, authSvc, movieSvc, reviewSvc, watchlistSvc)
	return srv
}
