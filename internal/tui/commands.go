package tui

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"

	"marketsim/internal/catalog"
)

type commandKind int

const (
	cmdBuy commandKind = iota + 1
	cmdSell
	cmdEndDay
	cmdHelp
	cmdQuit
)

type command struct {
	kind      commandKind
	productID string
	quantity  int
	price     *decimal.Decimal
}

var errEmptyCommand = errors.New("type a command, or help")

// parseCommand reads one line of the shop prompt:
//
//	buy <product> <qty>
//	sell <product> <qty> [price]
//	end | help | quit
//
// Products may be named by id, display name or 1-based catalog position.
func parseCommand(line string, cat *catalog.Catalog) (command, error) {
	fields := strings.Fields(strings.ToLower(line))
	if len(fields) == 0 {
		return command{}, errEmptyCommand
	}
	switch fields[0] {
	case "end", "e", "close":
		return command{kind: cmdEndDay}, nil
	case "help", "h", "?":
		return command{kind: cmdHelp}, nil
	case "quit", "q", "exit":
		return command{kind: cmdQuit}, nil
	case "buy", "b":
		if len(fields) != 3 {
			return command{}, fmt.Errorf("usage: buy <product> <qty>")
		}
		id, err := resolveProduct(fields[1], cat)
		if err != nil {
			return command{}, err
		}
		qty, err := parseQuantity(fields[2])
		if err != nil {
			return command{}, err
		}
		return command{kind: cmdBuy, productID: id, quantity: qty}, nil
	case "sell", "s", "list":
		if len(fields) != 3 && len(fields) != 4 {
			return command{}, fmt.Errorf("usage: sell <product> <qty> [price]")
		}
		id, err := resolveProduct(fields[1], cat)
		if err != nil {
			return command{}, err
		}
		qty, err := parseQuantity(fields[2])
		if err != nil {
			return command{}, err
		}
		cmd := command{kind: cmdSell, productID: id, quantity: qty}
		if len(fields) == 4 {
			price, err := decimal.NewFromString(strings.TrimPrefix(fields[3], "$"))
			if err != nil || !price.IsPositive() {
				return command{}, fmt.Errorf("price must be a positive number, got %q", fields[3])
			}
			cmd.price = &price
		}
		return cmd, nil
	default:
		return command{}, fmt.Errorf("unknown command %q", fields[0])
	}
}

func resolveProduct(token string, cat *catalog.Catalog) (string, error) {
	if p, ok := cat.Lookup(token); ok {
		return p.ID, nil
	}
	products := cat.Products()
	if n, err := strconv.Atoi(token); err == nil && n >= 1 && n <= len(products) {
		return products[n-1].ID, nil
	}
	for _, p := range products {
		if strings.EqualFold(p.Name, token) {
			return p.ID, nil
		}
	}
	return "", fmt.Errorf("no product called %q", token)
}

func parseQuantity(token string) (int, error) {
	n, err := strconv.Atoi(token)
	if err != nil || n <= 0 {
		return 0, fmt.Errorf("quantity must be a positive whole number, got %q", token)
	}
	return n, nil
}
