package source

import (
	"bytes"
	"testing"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/require"
)

const configYAML = `
suppliers:
  greenshop:
    strategy: static
    urls:
      - https://greenshop.example/verduras
      - https://greenshop.example/frutas
    selectors:
      product_list: .product-small
      title: .product-title a
      price: .price .amount
      image: img
      out_of_stock: .out-of-stock-label
    credentials:
      email: greenshop@example.com
      password: hunter2
  granero:
    strategy: excel
    files:
      - input/granero.xlsx
    sheet: Lista
    columns:
      name: 1
      price: 3
      skip_rows: 2
    credentials:
      email: granero@example.com
      password: hunter2
  broken:
    strategy: static
    credentials:
      email: x@example.com
      password: pw
`

func newTestViper(t *testing.T) *viper.Viper {
	t.Helper()
	v := viper.New()
	v.SetConfigType("yaml")
	require.NoError(t, v.ReadConfig(bytes.NewBufferString(configYAML)))
	return v
}

func TestLoadStaticSource(t *testing.T) {
	t.Parallel()

	src, err := Load(newTestViper(t), "greenshop")
	require.NoError(t, err)
	require.Equal(t, "greenshop", src.Name)
	require.Equal(t, StrategyStatic, src.Strategy)
	require.Len(t, src.Targets(), 2)
	require.Equal(t, ".product-small", src.Selectors["product_list"])
	require.Equal(t, "greenshop@example.com", src.Credentials.Email)
}

func TestLoadFileSource(t *testing.T) {
	t.Parallel()

	src, err := Load(newTestViper(t), "granero")
	require.NoError(t, err)
	require.Equal(t, StrategyExcel, src.Strategy)
	require.Equal(t, []string{"input/granero.xlsx"}, src.Targets())
	require.Equal(t, 1, src.Columns.Name)
	require.Equal(t, 3, src.Columns.Price)
	require.Equal(t, -1, src.Columns.Image, "unset image column defaults to -1")
	require.Equal(t, 2, src.Columns.SkipRows)
}

func TestLoadUnknownSupplier(t *testing.T) {
	t.Parallel()

	_, err := Load(newTestViper(t), "nope")
	require.Error(t, err)
}

func TestValidateRejectsMissingURLs(t *testing.T) {
	t.Parallel()

	_, err := Load(newTestViper(t), "broken")
	require.Error(t, err)
	require.Contains(t, err.Error(), "requires at least one url")
}

func TestValidateRejectsUnknownStrategy(t *testing.T) {
	t.Parallel()

	src := Source{Name: "x", Strategy: "carrier-pigeon", Credentials: Credentials{Email: "a", Password: "b"}}
	require.Error(t, src.Validate())
}

func TestListIsSorted(t *testing.T) {
	t.Parallel()

	require.Equal(t, []string{"broken", "granero", "greenshop"}, List(newTestViper(t)))
}
