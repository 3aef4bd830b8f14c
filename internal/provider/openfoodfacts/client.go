// Package openfoodfacts looks up packaged foods by barcode and returns their
// nutrition per 100 g, the basis ingredients are stored in.
package openfoodfacts

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/health-pal-uit/health-pal-server-sub000/internal/apperr"
	"github.com/health-pal-uit/health-pal-server-sub000/internal/model"
)

const defaultBaseURL = "https://world.openfoodfacts.org"

type Product struct {
	Barcode string
	Name    string
	Brand   string
	Per100g model.Nutrients
}

type Client struct {
	BaseURL    string
	HTTPClient *http.Client
}

func (c *Client) LookupBarcode(ctx context.Context, barcode string) (Product, error) {
	barcode = strings.TrimSpace(barcode)
	if barcode == "" {
		return Product{}, apperr.Invalidf("barcode is required")
	}
	base := strings.TrimRight(strings.TrimSpace(c.BaseURL), "/")
	if base == "" {
		base = defaultBaseURL
	}
	httpClient := c.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 12 * time.Second}
	}
	url := fmt.Sprintf("%s/api/v2/product/%s.json", base, barcode)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return Product{}, fmt.Errorf("create openfoodfacts request: %w", err)
	}
	req.Header.Set("User-Agent", "healthpal/1.0")

	resp, err := httpClient.Do(req)
	if err != nil {
		return Product{}, fmt.Errorf("execute openfoodfacts request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return Product{}, fmt.Errorf("read openfoodfacts response: %w", err)
	}
	if resp.StatusCode == http.StatusNotFound {
		return Product{}, apperr.NotFoundf("no openfoodfacts product found for barcode %q", barcode)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return Product{}, fmt.Errorf("openfoodfacts request failed with status %d", resp.StatusCode)
	}

	var parsed offResponse
	if err := json.Unmarshal(body, &parsed); err != nil {
		return Product{}, fmt.Errorf("decode openfoodfacts response: %w", err)
	}
	name := strings.TrimSpace(parsed.Product.ProductName)
	if parsed.Status != 1 || name == "" {
		return Product{}, apperr.NotFoundf("no openfoodfacts product found for barcode %q", barcode)
	}
	prod := parsed.Product
	kcal, ok := per100g(prod, "energy-kcal")
	if !ok {
		return Product{}, apperr.Preconditionf("openfoodfacts product %q has no per-100g energy", barcode)
	}
	protein, _ := per100g(prod, "proteins")
	fat, _ := per100g(prod, "fat")
	carbs, _ := per100g(prod, "carbohydrates")
	fiber, _ := per100g(prod, "fiber")
	return Product{
		Barcode: barcode,
		Name:    name,
		Brand:   strings.TrimSpace(parsed.Product.Brands),
		Per100g: model.Nutrients{Kcal: kcal, ProteinG: protein, FatG: fat, CarbsG: carbs, FiberG: fiber},
	}, nil
}

// per100g reads "<base>_100g", falling back to scaling "<base>_serving" by
// the serving quantity in grams.
func per100g(p offProduct, base string) (float64, bool) {
	if v, ok := parseFloatAny(p.Nutriments[base+"_100g"]); ok {
		return v, true
	}
	unit := strings.ToLower(strings.TrimSpace(p.ServingQuantityUnit))
	if p.ServingQuantity <= 0 || (unit != "" && unit != "g") {
		return 0, false
	}
	if v, ok := parseFloatAny(p.Nutriments[base+"_serving"]); ok {
		return v * 100 / p.ServingQuantity, true
	}
	return 0, false
}

func parseFloatAny(v any) (float64, bool) {
	switch t := v.(type) {
	case float64:
		return t, true
	case json.Number:
		f, err := t.Float64()
		return f, err == nil
	case string:
		f, err := strconv.ParseFloat(strings.TrimSpace(t), 64)
		return f, err == nil
	default:
		return 0, false
	}
}

type offResponse struct {
	Status  int        `json:"status"`
	Product offProduct `json:"product"`
}

type offProduct struct {
	Code                string         `json:"code"`
	ProductName         string         `json:"product_name"`
	Brands              string         `json:"brands"`
	ServingQuantity     float64        `json:"serving_quantity"`
	ServingQuantityUnit string         `json:"serving_quantity_unit"`
	Nutriments          map[string]any `json:"nutriments"`
}
