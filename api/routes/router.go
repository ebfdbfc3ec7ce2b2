package routes

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/shopkartlabs/shopkart-backend/api/controllers"
	"github.com/shopkartlabs/shopkart-backend/api/middleware"
	cartsvc "github.com/shopkartlabs/shopkart-backend/internal/cart"
	catalogsvc "github.com/shopkartlabs/shopkart-backend/internal/catalog"
	checkoutsvc "github.com/shopkartlabs/shopkart-backend/internal/checkout"
	orderssvc "github.com/shopkartlabs/shopkart-backend/internal/orders"
	paymentsvc "github.com/shopkartlabs/shopkart-backend/internal/payments"
	reviewsvc "github.com/shopkartlabs/shopkart-backend/internal/reviews"
	searchsvc "github.com/shopkartlabs/shopkart-backend/internal/search"
	usersvc "github.com/shopkartlabs/shopkart-backend/internal/users"
	wishlistsvc "github.com/shopkartlabs/shopkart-backend/internal/wishlist"
	"github.com/shopkartlabs/shopkart-backend/pkg/config"
	"github.com/shopkartlabs/shopkart-backend/pkg/enums"
	"github.com/shopkartlabs/shopkart-backend/pkg/logger"
	"github.com/shopkartlabs/shopkart-backend/pkg/metrics"
)

// Deps carries everything the router wires into handlers.
type Deps struct {
	Config   *config.Config
	Logger   *logger.Logger
	Metrics  *metrics.HTTPMetrics
	Resolver middleware.UserResolver

	DB    controllers.Pinger
	Redis controllers.Pinger

	Catalog  catalogsvc.Service
	Search   searchsvc.Service
	Cart     cartsvc.Service
	Checkout checkoutsvc.Service
	Orders   orderssvc.Service
	Payments paymentsvc.Service
	Wishlist wishlistsvc.Service
	Reviews  reviewsvc.Service
	Users    usersvc.Service

	RazorpayWebhook controllers.WebhookProcessor
	IdentityWebhook controllers.WebhookProcessor
}

func NewRouter(d Deps) http.Handler {
	cfg, logg := d.Config, d.Logger

	r := chi.NewRouter()
	r.Use(
		middleware.Recoverer(logg),
		middleware.RequestID(logg),
		middleware.Logging(logg),
		middleware.CORS(cfg.CORS),
	)
	if d.Metrics != nil {
		r.Use(middleware.Metrics(d.Metrics))
	}

	r.Route("/health", func(r chi.Router) {
		r.Get("/live", controllers.HealthLive(cfg))
		r.Get("/ready", controllers.HealthReady(cfg, logg, map[string]controllers.Pinger{
			"database": d.DB,
			"redis":    d.Redis,
		}))
	})
	r.Handle("/metrics", promhttp.Handler())

	r.Route("/api/v1", func(r chi.Router) {
		r.Route("/webhooks", func(r chi.Router) {
			r.Post("/razorpay", controllers.RazorpayWebhook(d.RazorpayWebhook, logg))
			r.Post("/identity", controllers.IdentityWebhook(d.IdentityWebhook, logg))
		})

		// Storefront browsing needs no session.
		r.Group(func(r chi.Router) {
			r.Get("/products", controllers.ListProducts(d.Catalog, logg))
			r.Get("/products/{productId}", controllers.GetProduct(d.Catalog, logg))
			r.Get("/products/{productId}/reviews", controllers.ListProductReviews(d.Reviews, logg))
			r.Get("/categories", controllers.ListCategories(d.Catalog, logg))
			r.Get("/search/suggestions", controllers.SearchSuggestions(d.Search, logg))
			r.Get("/search/recommendations", controllers.Recommendations(d.Search, logg))
		})

		r.Group(func(r chi.Router) {
			r.Use(middleware.Auth(d.Resolver, logg))

			r.Route("/cart", func(r chi.Router) {
				r.Get("/", controllers.GetCart(d.Cart, logg))
				r.Post("/items", controllers.AddCartItem(d.Cart, logg))
				r.Patch("/items/{itemId}", controllers.UpdateCartItem(d.Cart, logg))
				r.Delete("/items/{itemId}", controllers.RemoveCartItem(d.Cart, logg))
				r.Delete("/", controllers.ClearCart(d.Cart, logg))
			})

			r.Route("/orders", func(r chi.Router) {
				r.Post("/", controllers.PlaceOrder(d.Checkout, logg))
				r.Get("/", controllers.ListOrders(d.Orders, logg))
				r.Get("/{orderId}", controllers.GetOrder(d.Orders, logg))
				r.Post("/{orderId}/cancel", controllers.CancelOrder(d.Orders, logg))
			})

			r.Route("/payments", func(r chi.Router) {
				r.Post("/create", controllers.CreatePaymentIntent(d.Payments, logg))
				r.Post("/verify", controllers.VerifyPayment(d.Payments, logg))
			})

			r.Route("/wishlist", func(r chi.Router) {
				r.Get("/", controllers.ListWishlist(d.Wishlist, logg))
				r.Post("/", controllers.AddWishlistItem(d.Wishlist, logg))
				r.Delete("/{productId}", controllers.RemoveWishlistItem(d.Wishlist, logg))
			})

			r.Post("/products/{productId}/reviews", controllers.CreateReview(d.Reviews, logg))

			r.Route("/users/me", func(r chi.Router) {
				r.Get("/", controllers.GetProfile(d.Users, logg))
				r.Put("/", controllers.UpdateProfile(d.Users, logg))
				r.Get("/dashboard", controllers.GetDashboard(d.Users, logg))
			})

			r.Route("/seller", func(r chi.Router) {
				r.Use(middleware.RequireRole(string(enums.RoleSeller), logg))
				r.Route("/products", func(r chi.Router) {
					r.Get("/", controllers.SellerListProducts(d.Catalog, logg))
					r.Post("/", controllers.SellerCreateProduct(d.Catalog, logg))
					r.Patch("/{productId}", controllers.SellerUpdateProduct(d.Catalog, logg))
					r.Delete("/{productId}", controllers.SellerArchiveProduct(d.Catalog, logg))
				})
			})
		})
	})

	return r
}
