package rpc

import (
	"net/http"

	"github.com/gorilla/mux"
	gorillarpc "github.com/gorilla/rpc/v2"
	"github.com/gorilla/rpc/v2/json2"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/cors"
)

// NewHandler builds the full HTTP handler for the "quible" namespace:
// gorilla/rpc dispatching JSON-RPC 2.0 over a gorilla/mux router, CORS
// open to any origin, POST only, content-type application/json. This
// mirrors the gorilla/rpc + gorilla/mux + rs/cors combination used for
// the JSON-RPC surface across the Avalanche-lineage chains in the
// retrieval pack. A plain promhttp.Handler is mounted at /metrics
// alongside it for scraping the counters in the logging package.
func NewHandler(svc *Service) http.Handler {
	server := gorillarpc.NewServer()
	server.RegisterCodec(json2.NewCodec(), "application/json")
	if err := server.RegisterService(svc, "quible"); err != nil {
		panic("rpc: register service: " + err.Error())
	}

	router := mux.NewRouter()
	router.Handle("/", recordMetrics(methodCasing(server))).Methods(http.MethodPost)
	router.Handle("/metrics", promhttp.Handler()).Methods(http.MethodGet)

	c := cors.New(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{http.MethodPost},
		AllowedHeaders: []string{"Content-Type"},
	})
	return c.Handler(router)
}
