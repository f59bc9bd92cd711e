package api

import (
	"encoding/json"
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/Harsh-Singh007/grabit/internal/entity"
)

// flexBool accepts true, "true", 1 and their false counterparts. Browser
// clients forward query string values as strings.
type flexBool bool

func (b *flexBool) UnmarshalJSON(data []byte) error {
	var v interface{}
	if err := json.Unmarshal(data, &v); err != nil {
		return err
	}
	switch t := v.(type) {
	case bool:
		*b = flexBool(t)
	case float64:
		*b = t != 0
	case string:
		parsed, err := strconv.ParseBool(strings.TrimSpace(t))
		if err != nil {
			return fmt.Errorf("invalid boolean %q", t)
		}
		*b = flexBool(parsed)
	case nil:
		*b = false
	default:
		return fmt.Errorf("invalid boolean %s", data)
	}
	return nil
}

// stringList accepts either a single string or a list of strings.
type stringList []string

func (l *stringList) UnmarshalJSON(data []byte) error {
	var single string
	if err := json.Unmarshal(data, &single); err == nil {
		if single == "" {
			*l = nil
		} else {
			*l = stringList{single}
		}
		return nil
	}
	var many []string
	if err := json.Unmarshal(data, &many); err != nil {
		return fmt.Errorf("expected a string or a list of strings")
	}
	*l = many
	return nil
}

// cartPayload accepts a list of {productId, quantity} entries or an object
// keyed by product id.
type cartPayload []entity.CartItem

func (p *cartPayload) UnmarshalJSON(data []byte) error {
	var list []entity.CartItem
	if err := json.Unmarshal(data, &list); err == nil {
		*p = list
		return nil
	}
	var byID map[string]int
	if err := json.Unmarshal(data, &byID); err != nil {
		return fmt.Errorf("cartItems must be a list or an object")
	}
	ids := make([]string, 0, len(byID))
	for id := range byID {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	items := make([]entity.CartItem, 0, len(ids))
	for _, id := range ids {
		items = append(items, entity.CartItem{ProductID: id, Quantity: byID[id]})
	}
	*p = items
	return nil
}

type orderItemRequest struct {
	ProductID string `json:"productId"`
	Product   string `json:"product"`
	Quantity  int    `json:"quantity"`
}

type placeOrderRequest struct {
	Items   []orderItemRequest `json:"items"`
	Address entity.Address     `json:"address"`
}

func (r placeOrderRequest) items() []entity.OrderItem {
	items := make([]entity.OrderItem, 0, len(r.Items))
	for _, it := range r.Items {
		id := it.ProductID
		if id == "" {
			id = it.Product
		}
		items = append(items, entity.OrderItem{ProductID: id, Quantity: it.Quantity})
	}
	return items
}
