package client

import (
	"context"
	"time"

	"fintrack-server/src/derive"
	"fintrack-server/src/models"

	"golang.org/x/sync/errgroup"
)

// View is what a page renders: either a redirect, or a load state with data.
type View[T any] struct {
	Route Route
	Query[T]
}

// App binds the session and store to the pages of the frontend.
type App struct {
	Session *Session
	Store   *Store
	Now     func() time.Time
}

func (a *App) now() time.Time {
	if a.Now != nil {
		return a.Now()
	}
	return time.Now()
}

// lists is everything a page may need from the store.
type lists struct {
	transactions []models.Transaction
	categories   []models.Category
	budgets      []models.Budget
}

// load fetches the named collections concurrently. The page is ready only
// once every one of them is.
func (a *App) load(ctx context.Context, path string, withBudgets bool) (Route, lists, Query[struct{}]) {
	var l lists
	route := Guard(a.Session.State(), path)
	if !route.Allowed() {
		return route, l, Query[struct{}]{State: Idle}
	}
	userID := a.Session.UserID()

	var tq Query[[]models.Transaction]
	var cq Query[[]models.Category]
	bq := Query[[]models.Budget]{State: Ready}
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		tq = a.Store.Transactions.Fetch(gctx, userID)
		return tq.Err
	})
	g.Go(func() error {
		cq = a.Store.Categories.Fetch(gctx, userID)
		return cq.Err
	})
	if withBudgets {
		g.Go(func() error {
			bq = a.Store.Budgets.Fetch(gctx, userID)
			return bq.Err
		})
	}
	if err := g.Wait(); err != nil {
		return route, l, Query[struct{}]{State: Error, Err: err}
	}
	for _, s := range []LoadState{tq.State, cq.State, bq.State} {
		if s != Ready {
			return route, l, Query[struct{}]{State: s}
		}
	}
	l.transactions, l.categories, l.budgets = tq.Data, cq.Data, bq.Data
	return route, l, Query[struct{}]{State: Ready}
}

func viewOf[T any](route Route, q Query[struct{}], data func() T) View[T] {
	v := View[T]{Route: route, Query: Query[T]{State: q.State, Err: q.Err}}
	if q.State == Ready {
		v.Data = data()
	}
	return v
}

func (a *App) Dashboard(ctx context.Context) View[derive.Dashboard] {
	route, l, q := a.load(ctx, "/dashboard", false)
	return viewOf(route, q, func() derive.Dashboard {
		return derive.BuildDashboard(a.now(), l.transactions, l.categories)
	})
}

func (a *App) Transactions(ctx context.Context) View[[]models.Transaction] {
	route, l, q := a.load(ctx, "/transactions", false)
	return viewOf(route, q, func() []models.Transaction { return l.transactions })
}

func (a *App) Categories(ctx context.Context) View[[]models.Category] {
	route, l, q := a.load(ctx, "/categories", false)
	return viewOf(route, q, func() []models.Category {
		return derive.CategoriesWithSpending(a.now(), l.categories, l.transactions)
	})
}

// BudgetsPage is the budgets screen: progress per budget and the categories
// still offered in the "new budget" form.
type BudgetsPage struct {
	Budgets   []derive.BudgetProgress
	Available []models.Category
}

func (a *App) Budgets(ctx context.Context) View[BudgetsPage] {
	route, l, q := a.load(ctx, "/budgets", true)
	return viewOf(route, q, func() BudgetsPage {
		return BudgetsPage{
			Budgets:   derive.BudgetsWithProgress(a.now(), l.budgets, l.categories, l.transactions),
			Available: derive.AvailableCategories(l.categories, l.budgets),
		}
	})
}

func (a *App) Reports(ctx context.Context, r derive.DateRange) View[derive.Report] {
	route, l, q := a.load(ctx, "/reports", false)
	return viewOf(route, q, func() derive.Report {
		return derive.BuildReport(l.transactions, l.categories, r)
	})
}

func (a *App) Profile() View[models.User] {
	route := Guard(a.Session.State(), "/profile")
	if !route.Allowed() {
		return View[models.User]{Route: route}
	}
	u, _ := a.Session.User()
	return View[models.User]{Route: route, Query: Query[models.User]{State: Ready, Data: u}}
}

// AddTransaction creates a transaction owned by the signed-in user.
func (a *App) AddTransaction(ctx context.Context, tx models.Transaction) (models.Transaction, error) {
	tx.UserID = a.Session.UserID()
	if tx.UserID == "" {
		return tx, &FormError{Message: "Not signed in"}
	}
	return a.Store.Transactions.Create(ctx, tx)
}

func (a *App) DeleteTransaction(ctx context.Context, id string) error {
	userID := a.Session.UserID()
	if userID == "" {
		return &FormError{Message: "Not signed in"}
	}
	return a.Store.Transactions.Delete(ctx, userID, id)
}
