package schema_test

import (
	"errors"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/okian/winner/internal/domain/model"
	"github.com/okian/winner/internal/domain/schema"
	. "github.com/smartystreets/goconvey/convey"
)

func TestLoad_Builtin(t *testing.T) {
	Convey("Given the embedded schema documents", t, func() {
		registry, err := schema.Load("")
		So(err, ShouldBeNil)

		Convey("Then all six operation schemas should be registered", func() {
			So(registry.Require(schema.Required...), ShouldBeNil)
			So(registry.IDs(), ShouldHaveLength, 6)
		})

		Convey("Then ids should follow vendor/name/version", func() {
			So(string(schema.ScoreItems), ShouldEqual, "com.retail.winner/score-items/1-0-0")
		})
	})
}

func TestRegistry_ValidateRequests(t *testing.T) {
	Convey("Given the built-in registry", t, func() {
		registry, err := schema.Load("")
		So(err, ShouldBeNil)

		Convey("When a scores request carries a role", func() {
			req := model.Request{Path: "/scores", QueryStringParameters: map[string]string{"role": "seller", "limit": "5"}}
			ok, msg := registry.Validate(schema.ScoresRequest, req)
			So(ok, ShouldBeTrue)
			So(msg, ShouldBeEmpty)
		})

		Convey("When a scores request has no query parameters", func() {
			ok, msg := registry.Validate(schema.ScoresRequest, model.Request{Path: "/scores"})
			So(ok, ShouldBeFalse)
			So(msg, ShouldNotBeEmpty)
		})

		Convey("When a scores request has no role", func() {
			req := model.Request{Path: "/scores", QueryStringParameters: map[string]string{"limit": "2"}}
			ok, _ := registry.Validate(schema.ScoresRequest, req)
			So(ok, ShouldBeFalse)
		})

		Convey("When the limit is not a positive integer", func() {
			for _, limit := range []string{"0", "-1", "abc", "1.5", ""} {
				req := model.Request{QueryStringParameters: map[string]string{"role": "seller", "limit": limit}}
				ok, _ := registry.Validate(schema.ScoresRequest, req)
				So(ok, ShouldBeFalse)
			}
		})

		Convey("When a contributions request has a path", func() {
			ok, _ := registry.Validate(schema.ContributionsRequest, model.Request{Path: "/contributions"})
			So(ok, ShouldBeTrue)
		})

		Convey("When a contributions request has no path", func() {
			ok, _ := registry.Validate(schema.ContributionsRequest, model.Request{})
			So(ok, ShouldBeFalse)
		})

		Convey("When a popularity request is bare", func() {
			ok, _ := registry.Validate(schema.PopularityRequest, model.Request{})
			So(ok, ShouldBeTrue)
		})

		Convey("When the schema id is unknown", func() {
			ok, msg := registry.Validate(schema.ID("x/y/1-0-0"), model.Request{})
			So(ok, ShouldBeFalse)
			So(msg, ShouldContainSubstring, "x/y/1-0-0")
		})
	})
}

func TestRegistry_ValidateItems(t *testing.T) {
	Convey("Given the built-in registry", t, func() {
		registry, err := schema.Load("")
		So(err, ShouldBeNil)

		Convey("When score items are well formed", func() {
			items := []map[string]any{
				{"userId": "widget/seller/ABC1234567/Alice", "score": 12},
				{"userId": "widget/seller/XYZ", "score": 0},
			}
			ok, _ := registry.Validate(schema.ScoreItems, items)
			So(ok, ShouldBeTrue)
		})

		Convey("When an empty result set is validated", func() {
			ok, _ := registry.Validate(schema.ScoreItems, []map[string]any{})
			So(ok, ShouldBeTrue)
		})

		Convey("When a score is not a number", func() {
			items := []map[string]any{{"userId": "u", "score": "high"}}
			ok, msg := registry.Validate(schema.ScoreItems, items)
			So(ok, ShouldBeFalse)
			So(msg, ShouldNotBeEmpty)
		})

		Convey("When a record carries an unexpected attribute", func() {
			items := []map[string]any{{"productId": "p-1", "ssn": "123-45-6789"}}
			ok, _ := registry.Validate(schema.ContributionItems, items)
			So(ok, ShouldBeFalse)
		})

		Convey("When popularity returns more than three products", func() {
			items := []map[string]any{
				{"productName": "a", "purchaseCount": 4},
				{"productName": "b", "purchaseCount": 3},
				{"productName": "c", "purchaseCount": 2},
				{"productName": "d", "purchaseCount": 1},
			}
			ok, _ := registry.Validate(schema.PopularityItems, items)
			So(ok, ShouldBeFalse)
		})

		Convey("When a purchase count is fractional", func() {
			items := []map[string]any{{"productName": "a", "purchaseCount": 2.5}}
			ok, _ := registry.Validate(schema.PopularityItems, items)
			So(ok, ShouldBeFalse)
		})

		Convey("When typed records are validated", func() {
			items := []model.PopularityRecord{{ProductName: "a", PurchaseCount: 42}}
			ok, _ := registry.Validate(schema.PopularityItems, items)
			So(ok, ShouldBeTrue)
		})
	})
}

func TestRegistry_Register(t *testing.T) {
	Convey("Given an empty registry", t, func() {
		registry := schema.NewRegistry()
		doc, err := schema.ParseDocument([]byte(`{
			"self": {"vendor": "com.example", "name": "thing", "version": "1-0-0"},
			"schema": {"type": "string"}
		}`))
		So(err, ShouldBeNil)

		Convey("When a document is registered", func() {
			id, err := registry.Register(doc)
			So(err, ShouldBeNil)
			So(id, ShouldEqual, schema.ID("com.example/thing/1-0-0"))
			So(registry.Has(id), ShouldBeTrue)

			Convey("Then registering it again fails", func() {
				_, err := registry.Register(doc)
				So(errors.Is(err, schema.ErrDuplicateSchema), ShouldBeTrue)
			})

			Convey("Then values are validated against it", func() {
				ok, _ := registry.Validate(id, "text")
				So(ok, ShouldBeTrue)
				ok, _ = registry.Validate(id, 12)
				So(ok, ShouldBeFalse)
			})
		})

		Convey("When required ids are missing", func() {
			err := registry.Require(schema.ScoreItems)
			So(errors.Is(err, schema.ErrUnknownSchema), ShouldBeTrue)
			So(err.Error(), ShouldContainSubstring, string(schema.ScoreItems))
		})
	})
}

func TestParseDocument_Invalid(t *testing.T) {
	Convey("Given malformed schema documents", t, func() {
		for _, raw := range []string{
			`not json`,
			`{"schema": {"type": "object"}}`,
			`{"self": {"vendor": "v", "name": "n", "version": "1"}}`,
		} {
			_, err := schema.ParseDocument([]byte(raw))
			So(errors.Is(err, schema.ErrInvalidDocument), ShouldBeTrue)
		}
	})
}

func TestLoad_Directory(t *testing.T) {
	Convey("Given a schema directory", t, func() {
		dir := t.TempDir()

		Convey("When a YAML document overrides a built-in schema", func() {
			override := `
self:
  vendor: com.retail.winner
  name: score-items
  format: jsonschema
  version: 1-0-0
schema:
  type: array
  items:
    type: object
    required: [userId, score]
    properties:
      userId: {type: string}
      score: {type: number}
`
			So(os.WriteFile(filepath.Join(dir, "score-items.yaml"), []byte(override), 0o600), ShouldBeNil)
			So(os.WriteFile(filepath.Join(dir, "README.md"), []byte("ignored"), 0o600), ShouldBeNil)

			registry, err := schema.Load(dir)
			So(err, ShouldBeNil)

			Convey("Then the override replaces the embedded rules", func() {
				items := []map[string]any{{"userId": "u", "score": 1, "role": "seller"}}
				ok, _ := registry.Validate(schema.ScoreItems, items)
				So(ok, ShouldBeTrue)
				So(registry.IDs(), ShouldHaveLength, 6)
			})
		})

		Convey("When a document in the directory is broken", func() {
			So(os.WriteFile(filepath.Join(dir, "broken.json"), []byte(`{"self": {}}`), 0o600), ShouldBeNil)

			_, err := schema.Load(dir)
			So(errors.Is(err, schema.ErrInvalidDocument), ShouldBeTrue)
		})

		Convey("When the directory does not exist", func() {
			_, err := schema.Load(filepath.Join(dir, "missing"))
			So(err, ShouldNotBeNil)
		})
	})
}

func TestRegistry_ConcurrentValidate(t *testing.T) {
	Convey("Given a loaded registry shared by many goroutines", t, func() {
		registry, err := schema.Load("")
		So(err, ShouldBeNil)

		var wg sync.WaitGroup
		results := make([]bool, 64)
		for i := range results {
			wg.Add(1)
			go func(i int) {
				defer wg.Done()
				results[i], _ = registry.Validate(schema.ContributionItems, []map[string]any{{"productId": "p1"}})
			}(i)
		}
		wg.Wait()

		for _, ok := range results {
			So(ok, ShouldBeTrue)
		}
	})
}
