package token

import (
	"errors"
	"net/http"
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/lodecoin/lodecoin/internal/asset"
	"github.com/lodecoin/lodecoin/internal/auth"
)

// Handler exposes every ledger action over HTTP. The JWT middleware stores
// the caller name and auth scope in request locals before any of these run.
type Handler struct {
	ledger *Ledger
}

// NewHandler builds a token HTTP handler.
func NewHandler(ledger *Ledger) *Handler {
	return &Handler{ledger: ledger}
}

func callerScope(c *fiber.Ctx) (string, auth.Scope) {
	name, _ := c.Locals("actor_name").(string)
	scope, _ := c.Locals("auth_scope").(auth.Scope)
	if scope == nil {
		scope = auth.NewScope()
	}
	return name, scope
}

// httpError maps engine failures onto HTTP statuses.
func httpError(err error) error {
	switch {
	case errors.Is(err, auth.ErrMissingAuthority):
		return fiber.NewError(http.StatusForbidden, err.Error())
	case errors.Is(err, ErrUnknownSymbol),
		errors.Is(err, ErrUnknownAccount),
		errors.Is(err, ErrNoBalance),
		errors.Is(err, ErrBalanceMissing):
		return fiber.NewError(http.StatusNotFound, err.Error())
	case errors.Is(err, ErrSymbolExists):
		return fiber.NewError(http.StatusConflict, err.Error())
	default:
		return fiber.NewError(http.StatusBadRequest, err.Error())
	}
}

type createRequest struct {
	Issuer    string `json:"issuer"`
	MaxSupply string `json:"max_supply"`
}

// Create registers a new symbol.
func (h *Handler) Create(c *fiber.Ctx) error {
	var req createRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(http.StatusBadRequest, err.Error())
	}
	maxSupply, err := asset.Parse(req.MaxSupply)
	if err != nil {
		return fiber.NewError(http.StatusBadRequest, err.Error())
	}
	_, scope := callerScope(c)
	if err := h.ledger.Create(c.UserContext(), scope, req.Issuer, maxSupply); err != nil {
		return httpError(err)
	}
	return c.Status(http.StatusCreated).JSON(fiber.Map{
		"symbol":     maxSupply.Symbol.String(),
		"max_supply": maxSupply.String(),
		"issuer":     req.Issuer,
	})
}

type issueRequest struct {
	To       string `json:"to"`
	Quantity string `json:"quantity"`
	Memo     string `json:"memo"`
}

// Issue performs the genesis mint.
func (h *Handler) Issue(c *fiber.Ctx) error {
	var req issueRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(http.StatusBadRequest, err.Error())
	}
	quantity, err := asset.Parse(req.Quantity)
	if err != nil {
		return fiber.NewError(http.StatusBadRequest, err.Error())
	}
	_, scope := callerScope(c)
	if err := h.ledger.Issue(c.UserContext(), scope, req.To, quantity, req.Memo); err != nil {
		return httpError(err)
	}
	return c.Status(http.StatusOK).JSON(fiber.Map{
		"to":       req.To,
		"quantity": quantity.String(),
	})
}

type transferRequest struct {
	To       string `json:"to"`
	Quantity string `json:"quantity"`
	Memo     string `json:"memo"`
}

// Transfer moves tokens from the caller to another account.
func (h *Handler) Transfer(c *fiber.Ctx) error {
	var req transferRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(http.StatusBadRequest, err.Error())
	}
	quantity, err := asset.Parse(req.Quantity)
	if err != nil {
		return fiber.NewError(http.StatusBadRequest, err.Error())
	}
	caller, scope := callerScope(c)
	if err := h.ledger.Transfer(c.UserContext(), scope, caller, req.To, quantity, req.Memo); err != nil {
		return httpError(err)
	}
	return c.Status(http.StatusOK).JSON(fiber.Map{
		"from":     caller,
		"to":       req.To,
		"quantity": quantity.String(),
	})
}

type openRequest struct {
	Owner  string `json:"owner"`
	Symbol string `json:"symbol"`
}

// Open creates a zero balance row; the caller pays for it.
func (h *Handler) Open(c *fiber.Ctx) error {
	var req openRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(http.StatusBadRequest, err.Error())
	}
	sym, err := asset.ParseSymbol(req.Symbol)
	if err != nil {
		return fiber.NewError(http.StatusBadRequest, err.Error())
	}
	caller, scope := callerScope(c)
	if err := h.ledger.Open(c.UserContext(), scope, req.Owner, sym, caller); err != nil {
		return httpError(err)
	}
	return c.Status(http.StatusOK).JSON(fiber.Map{"owner": req.Owner, "symbol": sym.String()})
}

type closeRequest struct {
	Symbol string `json:"symbol"`
}

// Close deletes the caller's zero balance row.
func (h *Handler) Close(c *fiber.Ctx) error {
	var req closeRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(http.StatusBadRequest, err.Error())
	}
	sym, err := asset.ParseSymbol(req.Symbol)
	if err != nil {
		return fiber.NewError(http.StatusBadRequest, err.Error())
	}
	caller, scope := callerScope(c)
	if err := h.ledger.Close(c.UserContext(), scope, caller, sym); err != nil {
		return httpError(err)
	}
	return c.Status(http.StatusOK).JSON(fiber.Map{"owner": caller, "symbol": sym.String()})
}

type mineRequest struct {
	Symbol string `json:"symbol"`
}

// Mine claims the current block's inflation reward for the caller.
func (h *Handler) Mine(c *fiber.Ctx) error {
	var req mineRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(http.StatusBadRequest, err.Error())
	}
	sym, err := asset.ParseSymbol(req.Symbol)
	if err != nil {
		return fiber.NewError(http.StatusBadRequest, err.Error())
	}
	caller, scope := callerScope(c)
	res, err := h.ledger.Mine(c.UserContext(), scope, caller, sym)
	if err != nil {
		return httpError(err)
	}

	body := fiber.Map{
		"outcome":  string(res.Outcome),
		"supply":   res.Supply.String(),
		"mined_at": res.MinedAt.Format(time.RFC3339Nano),
	}
	if res.Outcome == MineSucceeded {
		body["reward"] = res.Reward.String()
	}
	return c.Status(http.StatusOK).JSON(body)
}

type rewardReceiptRequest struct {
	From   string `json:"from"`
	To     string `json:"to"`
	Reward string `json:"reward"`
	Memo   string `json:"memo"`
}

// MiningReward accepts the issuer-signed success receipt.
func (h *Handler) MiningReward(c *fiber.Ctx) error {
	var req rewardReceiptRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(http.StatusBadRequest, err.Error())
	}
	reward, err := asset.Parse(req.Reward)
	if err != nil {
		return fiber.NewError(http.StatusBadRequest, err.Error())
	}
	_, scope := callerScope(c)
	if err := h.ledger.MiningReward(c.UserContext(), scope, req.From, req.To, reward, req.Memo); err != nil {
		return httpError(err)
	}
	return c.Status(http.StatusOK).JSON(fiber.Map{"status": "propagated"})
}

type failReceiptRequest struct {
	From   string `json:"from"`
	To     string `json:"to"`
	Symbol string `json:"symbol"`
	Memo   string `json:"memo"`
}

// MiningFail accepts the issuer-signed failure receipt.
func (h *Handler) MiningFail(c *fiber.Ctx) error {
	var req failReceiptRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(http.StatusBadRequest, err.Error())
	}
	sym, err := asset.ParseSymbol(req.Symbol)
	if err != nil {
		return fiber.NewError(http.StatusBadRequest, err.Error())
	}
	_, scope := callerScope(c)
	if err := h.ledger.MiningFail(c.UserContext(), scope, req.From, req.To, sym, req.Memo); err != nil {
		return httpError(err)
	}
	return c.Status(http.StatusOK).JSON(fiber.Map{"status": "propagated"})
}

// Stat returns the supply record for a symbol code.
func (h *Handler) Stat(c *fiber.Ctx) error {
	st, err := h.ledger.GetSupply(c.UserContext(), c.Params("code"))
	if err != nil {
		return httpError(err)
	}
	body := fiber.Map{
		"supply":     st.Supply.String(),
		"max_supply": st.MaxSupply.String(),
		"issuer":     st.Issuer,
	}
	if !st.LastRewardTime.IsZero() {
		body["last_reward_time"] = st.LastRewardTime.Format(time.RFC3339Nano)
	}
	return c.Status(http.StatusOK).JSON(body)
}

// Balance returns one account's balance for a symbol code.
func (h *Handler) Balance(c *fiber.Ctx) error {
	balance, err := h.ledger.GetBalance(c.UserContext(), c.Params("owner"), c.Params("code"))
	if err != nil {
		return httpError(err)
	}
	return c.Status(http.StatusOK).JSON(fiber.Map{
		"owner":   c.Params("owner"),
		"balance": balance.String(),
	})
}
