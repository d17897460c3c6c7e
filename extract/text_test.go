package extract_test

import (
	"testing"

	"github.com/fwojciec/carlot"
	"github.com/fwojciec/carlot/extract"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExtractor_ExtractFields(t *testing.T) {
	t.Parallel()

	t.Run("recovers every field of a Bulgarian listing", func(t *testing.T) {
		t.Parallel()

		e := extract.NewExtractor()
		fields := e.ExtractFields("BMW M5 Competition 2019 г. 113 000 км Черен Бензинов 625 к.с. 4395 куб.см Автоматична Седан 109 999 лв")

		assert.Equal(t, carlot.FieldMap{
			carlot.FieldYear:               carlot.IntValue(2019),
			carlot.FieldMileage:            carlot.IntValue(113000),
			carlot.FieldColor:              carlot.StringValue("Черен"),
			carlot.FieldFuelType:           carlot.StringValue("Бензинов"),
			carlot.FieldEnginePower:        carlot.IntValue(625),
			carlot.FieldEngineDisplacement: carlot.FloatValue(4.395),
			carlot.FieldTransmission:       carlot.StringValue("Автоматична"),
			carlot.FieldBodyType:           carlot.StringValue("Седан"),
			carlot.FieldPrice:              carlot.FloatValue(109999),
		}, fields)
	})

	t.Run("decodes space-grouped price", func(t *testing.T) {
		t.Parallel()

		text := "Цена: 109 999 лв"
		fields := extract.NewExtractor().ExtractFields(text)

		price, ok := fields.Float(carlot.FieldPrice)
		require.True(t, ok)
		assert.InDelta(t, 109999.0, price, 0)
		assert.Equal(t, "BGN", extract.DetectCurrency(text))
	})

	t.Run("decodes prefix currency with comma grouping", func(t *testing.T) {
		t.Parallel()

		fields := extract.NewExtractor().ExtractFields("Asking € 25,500 firm")

		price, ok := fields.Float(carlot.FieldPrice)
		require.True(t, ok)
		assert.InDelta(t, 25500.0, price, 0)
	})

	t.Run("decodes mixed separators", func(t *testing.T) {
		t.Parallel()

		fields := extract.NewExtractor().ExtractFields("$12,345.50")

		price, ok := fields.Float(carlot.FieldPrice)
		require.True(t, ok)
		assert.InDelta(t, 12345.5, price, 1e-9)
	})

	t.Run("reads year with Bulgarian suffix", func(t *testing.T) {
		t.Parallel()

		fields := extract.NewExtractor().ExtractFields("Произведена 2021 г.")

		year, ok := fields.Int(carlot.FieldYear)
		require.True(t, ok)
		assert.Equal(t, 2021, year)
	})

	t.Run("omits year outside validator bounds", func(t *testing.T) {
		t.Parallel()

		fields := extract.NewExtractor().ExtractFields("1975")

		assert.NotContains(t, fields, carlot.FieldYear)
		assert.Empty(t, fields)
	})

	t.Run("omits price outside validator bounds", func(t *testing.T) {
		t.Parallel()

		fields := extract.NewExtractor().ExtractFields("Доставка 500 лв")

		assert.NotContains(t, fields, carlot.FieldPrice)
	})

	t.Run("prefers the longer match", func(t *testing.T) {
		t.Parallel()

		fields := extract.NewExtractor().ExtractFields("Model 2020, първа регистрация 2019 г.")

		year, ok := fields.Int(carlot.FieldYear)
		require.True(t, ok)
		assert.Equal(t, 2019, year)
	})

	t.Run("ignores digits inside longer numbers", func(t *testing.T) {
		t.Parallel()

		fields := extract.NewExtractor().ExtractFields("Ref 120195")

		assert.NotContains(t, fields, carlot.FieldYear)
	})

	t.Run("finds mileage after an adjacent year", func(t *testing.T) {
		t.Parallel()

		fields := extract.NewExtractor().ExtractFields("2019 113 000 км")

		mileage, ok := fields.Int(carlot.FieldMileage)
		require.True(t, ok)
		assert.Equal(t, 113000, mileage)
	})

	t.Run("requires whole words for vocabulary", func(t *testing.T) {
		t.Parallel()

		fields := extract.NewExtractor().ExtractFields("Reduced price, Rotation service done")

		assert.NotContains(t, fields, carlot.FieldColor)
	})

	t.Run("matches vocabulary case-insensitively", func(t *testing.T) {
		t.Parallel()

		fields := extract.NewExtractor().ExtractFields("DIESEL, manual")

		fuel, _ := fields.Str(carlot.FieldFuelType)
		transmission, _ := fields.Str(carlot.FieldTransmission)
		assert.Equal(t, "DIESEL", fuel)
		assert.Equal(t, "manual", transmission)
	})

	t.Run("reads displacement in litres and cubic centimetres", func(t *testing.T) {
		t.Parallel()

		e := extract.NewExtractor()

		litres, ok := e.ExtractFields("2.0 L TDI").Float(carlot.FieldEngineDisplacement)
		require.True(t, ok)
		assert.InDelta(t, 2.0, litres, 1e-9)

		cc, ok := e.ExtractFields("1 998 куб.см").Float(carlot.FieldEngineDisplacement)
		require.True(t, ok)
		assert.InDelta(t, 1.998, cc, 1e-9)
	})

	t.Run("reads spelled-out litre units", func(t *testing.T) {
		t.Parallel()

		e := extract.NewExtractor()

		fields := e.ExtractFields("2.0 liters 2018 г.")
		liters, ok := fields.Float(carlot.FieldEngineDisplacement)
		require.True(t, ok)
		assert.InDelta(t, 2.0, liters, 1e-9)
		year, ok := fields.Int(carlot.FieldYear)
		require.True(t, ok)
		assert.Equal(t, 2018, year)

		litres, ok := e.ExtractFields("3.0 litres").Float(carlot.FieldEngineDisplacement)
		require.True(t, ok)
		assert.InDelta(t, 3.0, litres, 1e-9)
	})

	t.Run("ignores emission class next to a price", func(t *testing.T) {
		t.Parallel()

		candidates := extract.NewExtractor().Candidates("BMW 320d 2019 Euro 6 9 500 лв")

		var prices []extract.Candidate
		for _, c := range candidates {
			if c.Field == carlot.FieldPrice {
				prices = append(prices, c)
			}
		}
		require.Len(t, prices, 1)
		assert.Equal(t, "9 500 лв", prices[0].Raw)
		assert.Equal(t, "BGN", prices[0].Currency)
	})

	t.Run("reads location after town prefix", func(t *testing.T) {
		t.Parallel()

		fields := extract.NewExtractor().ExtractFields("Намира се в гр. Стара Загора, обл. Стара Загора")

		location, ok := fields.Str(carlot.FieldLocation)
		require.True(t, ok)
		assert.Equal(t, "Стара Загора", location)
	})

	t.Run("reads English mileage and power", func(t *testing.T) {
		t.Parallel()

		fields := extract.NewExtractor().ExtractFields("2017 Golf, 84,000 km, 150 hp, Silver")

		mileage, _ := fields.Int(carlot.FieldMileage)
		power, _ := fields.Int(carlot.FieldEnginePower)
		color, _ := fields.Str(carlot.FieldColor)
		assert.Equal(t, 84000, mileage)
		assert.Equal(t, 150, power)
		assert.Equal(t, "Silver", color)
	})

	t.Run("returns empty map for empty text", func(t *testing.T) {
		t.Parallel()

		assert.Empty(t, extract.NewExtractor().ExtractFields(""))
	})

	t.Run("is idempotent", func(t *testing.T) {
		t.Parallel()

		e := extract.NewExtractor()
		text := "VW Golf 2017 г. 84 000 км Дизел Ръчна Хечбек Сив 18 500 лв гр. Пловдив"

		assert.Equal(t, e.ExtractFields(text), e.ExtractFields(text))
	})
}

func TestExtractor_Candidates(t *testing.T) {
	t.Parallel()

	t.Run("lists every surviving match with its score", func(t *testing.T) {
		t.Parallel()

		candidates := extract.NewExtractor().Candidates("2019 г.")

		require.NotEmpty(t, candidates)
		for _, c := range candidates {
			assert.Equal(t, carlot.FieldYear, c.Field)
			assert.Equal(t, carlot.IntValue(2019), c.Value)
		}
		last := candidates[len(candidates)-1]
		assert.Equal(t, "2019 г.", last.Raw)
		assert.InDelta(t, 0.95+0.07, last.Score, 1e-9)
	})
}

func TestWithRegistry(t *testing.T) {
	t.Parallel()

	reg := extract.NewRegistry(extract.FieldPattern{
		Field:     carlot.FieldYear,
		BaseScore: 1,
		Kind:      carlot.KindInteger,
		Forms:     extract.DefaultPatterns(2025)[1].Forms,
	})
	e := extract.NewExtractor(extract.WithRegistry(reg))

	fields := e.ExtractFields("2019 г. 113 000 км")

	assert.Equal(t, carlot.FieldMap{carlot.FieldYear: carlot.IntValue(2019)}, fields)
}

func TestDetectCurrency(t *testing.T) {
	t.Parallel()

	t.Run("normalizes the token of the price", func(t *testing.T) {
		t.Parallel()

		assert.Equal(t, "EUR", extract.DetectCurrency("Цена 12 000 € с ДДС"))
		assert.Equal(t, "USD", extract.DetectCurrency("USD 9,900"))
		assert.Equal(t, "BGN", extract.DetectCurrency("25 500 лева"))
		assert.Equal(t, "EUR", extract.DetectCurrency("EUR 5 500"))
	})

	t.Run("skips emission standard labels", func(t *testing.T) {
		t.Parallel()

		assert.Equal(t, "BGN", extract.DetectCurrency("BMW M5 Евро 6 2019 г. 113 000 км 109 999 лв"))
		assert.Equal(t, "BGN", extract.DetectCurrency("EURO 5, цена по договаряне в лв."))
		assert.Empty(t, extract.DetectCurrency("Евро 6"))
	})

	t.Run("falls back to a standalone token", func(t *testing.T) {
		t.Parallel()

		assert.Equal(t, "USD", extract.DetectCurrency("Prices in USD"))
		assert.Empty(t, extract.DetectCurrency("без цена"))
	})
}

func TestPriceCurrency(t *testing.T) {
	t.Parallel()

	price := 9500.0
	assert.Equal(t, "EUR", extract.PriceCurrency("Лизинг от 1 200 лв, цена 9 500 €", &price))
	assert.Equal(t, "BGN", extract.PriceCurrency("Лизинг от 1 200 лв, цена 9 500 €", nil))
}
