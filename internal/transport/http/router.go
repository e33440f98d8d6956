package http

import (
	"log"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/foldline/boxoffice/internal/app"
)

// Services bundles everything the router mounts.
type Services struct {
	Auth       *app.AuthService
	Events     *app.EventService
	Items      *app.ItemService
	Quotas     *app.QuotaService
	Carts      *app.CartService
	Orders     *app.OrderService
	Checkins   *app.CheckinService
	Vouchers   *app.VoucherService
	Seats      *app.SeatService
	Invoices   *app.InvoiceService
	Customers  *app.CustomerService
	Exhibitors *app.ExhibitorService
	Exports    *app.ExportService
}

// NewRouter assembles the full API surface. All resources live under
// /api/v1/organizers/{organizer} and require a valid organizer token;
// event-scoped resources additionally resolve the {event} slug.
func NewRouter(svcs Services, corsOrigins []string, logger *log.Logger) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.StripSlashes)
	r.Use(middleware.Recoverer)
	r.NotFound(NotFoundHandler().ServeHTTP)
	r.MethodNotAllowed(MethodNotAllowedHandler().ServeHTTP)

	r.Get("/health", HandleHealth())

	r.Route("/api/v1/organizers/{organizer}", func(r chi.Router) {
		r.Use(RequireOrganizer(svcs.Auth))

		r.Route("/customers", func(r chi.Router) {
			r.Get("/", HandleListCustomers(svcs.Customers))
			r.Post("/", HandleCreateCustomer(svcs.Customers))
			r.Post("/login", HandleCustomerLogin(svcs.Customers))
			r.Get("/{identifier}", HandleGetCustomer(svcs.Customers))
			r.Patch("/{identifier}", HandleUpdateCustomer(svcs.Customers))
			r.Get("/{identifier}/orders", HandleCustomerOrders(svcs.Customers))
		})

		r.Route("/exhibitors", func(r chi.Router) {
			r.Get("/", HandleListExhibitors(svcs.Exhibitors))
			r.Post("/", HandleCreateExhibitor(svcs.Exhibitors))
			r.Get("/{id}", HandleGetExhibitor(svcs.Exhibitors))
			r.Patch("/{id}", HandleUpdateExhibitor(svcs.Exhibitors))
			r.Delete("/{id}", HandleDeleteExhibitor(svcs.Exhibitors))
			r.Post("/{id}/rotate_key", HandleRotateExhibitorKey(svcs.Exhibitors))
		})

		r.Route("/events", func(r chi.Router) {
			r.Get("/", HandleListEvents(svcs.Events))
			r.Post("/", HandleCreateEvent(svcs.Events))

			r.Route("/{event}", func(r chi.Router) {
				r.Get("/", HandleGetEvent(svcs.Events))
				r.Patch("/", HandleUpdateEvent(svcs.Events))
				r.Delete("/", HandleDeleteEvent(svcs.Events))

				r.Group(func(r chi.Router) {
					r.Use(RequireEvent(svcs.Events))

					r.Route("/subevents", func(r chi.Router) {
						r.Get("/", HandleListSubevents(svcs.Events))
						r.Post("/", HandleCreateSubevent(svcs.Events))
						r.Get("/{id}", HandleGetSubevent(svcs.Events))
						r.Patch("/{id}", HandleUpdateSubevent(svcs.Events))
						r.Delete("/{id}", HandleDeleteSubevent(svcs.Events))
					})

					r.Route("/items", func(r chi.Router) {
						r.Get("/", HandleListItems(svcs.Items))
						r.Post("/", HandleCreateItem(svcs.Items))
						r.Get("/{id}", HandleGetItem(svcs.Items))
						r.Patch("/{id}", HandleUpdateItem(svcs.Items))
						r.Delete("/{id}", HandleDeleteItem(svcs.Items))
					})

					r.Route("/quotas", func(r chi.Router) {
						r.Get("/", HandleListQuotas(svcs.Quotas))
						r.Post("/", HandleCreateQuota(svcs.Quotas))
						r.Get("/{id}", HandleGetQuota(svcs.Quotas))
						r.Patch("/{id}", HandleUpdateQuota(svcs.Quotas))
						r.Delete("/{id}", HandleDeleteQuota(svcs.Quotas))
						r.Get("/{id}/availability", HandleQuotaAvailability(svcs.Quotas))
					})

					r.Route("/cartpositions", func(r chi.Router) {
						r.Get("/", HandleListCartPositions(svcs.Carts))
						r.Post("/", HandleCreateCartPosition(svcs.Carts))
						r.Get("/{id}", HandleGetCartPosition(svcs.Carts))
						r.Delete("/{id}", HandleDeleteCartPosition(svcs.Carts))
					})

					r.Route("/orders", func(r chi.Router) {
						r.Get("/", HandleListOrders(svcs.Orders))
						r.Post("/", HandleCreateOrder(svcs.Orders))
						r.Get("/{code}", HandleGetOrder(svcs.Orders))
						r.Post("/{code}/mark_paid", HandleMarkOrderPaid(svcs.Orders))
						r.Post("/{code}/mark_canceled", HandleMarkOrderCanceled(svcs.Orders))
						r.Post("/{code}/mark_pending", HandleMarkOrderPending(svcs.Orders))
						r.Post("/{code}/mark_expired", HandleMarkOrderExpired(svcs.Orders))
						r.Get("/{code}/positions", HandleListOrderPositions(svcs.Orders))
						r.Delete("/{code}/positions/{id}", HandleDeleteOrderPosition(svcs.Orders))
					})

					r.Route("/checkinlists", func(r chi.Router) {
						r.Get("/", HandleListCheckinLists(svcs.Checkins))
						r.Post("/", HandleCreateCheckinList(svcs.Checkins))
						r.Get("/{id}", HandleGetCheckinList(svcs.Checkins))
						r.Patch("/{id}", HandleUpdateCheckinList(svcs.Checkins))
						r.Delete("/{id}", HandleDeleteCheckinList(svcs.Checkins))
						r.Get("/{id}/status", HandleCheckinListStatus(svcs.Checkins))
						r.Post("/{id}/positions/{positionid}/redeem", HandleRedeem(svcs.Checkins))
					})

					r.Route("/vouchers", func(r chi.Router) {
						r.Get("/", HandleListVouchers(svcs.Vouchers))
						r.Post("/", HandleCreateVoucher(svcs.Vouchers))
						r.Get("/{id}", HandleGetVoucher(svcs.Vouchers))
						r.Patch("/{id}", HandleUpdateVoucher(svcs.Vouchers))
						r.Delete("/{id}", HandleDeleteVoucher(svcs.Vouchers))
					})

					r.Route("/seats", func(r chi.Router) {
						r.Get("/", HandleListSeats(svcs.Seats))
						r.Post("/", HandleCreateSeats(svcs.Seats))
						r.Get("/{id}", HandleGetSeat(svcs.Seats))
					})

					r.Route("/invoices", func(r chi.Router) {
						r.Get("/", HandleListInvoices(svcs.Invoices))
						r.Get("/{number}", HandleGetInvoice(svcs.Invoices))
					})

					r.Route("/exports", func(r chi.Router) {
						r.Post("/run", HandleRunExport(svcs.Exports))
						r.Get("/{id}/download", HandleDownloadExport(svcs.Exports))
					})
				})
			})
		})
	})

	return RequestLogger(CORS(corsOrigins, r), logger)
}
