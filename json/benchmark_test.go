package json

import (
	stdjson "encoding/json"
	"testing"

	jsoniter "github.com/json-iterator/go"
)

// Simple test structures for benchmarking
type SimplePerson struct {
	Name   string  `json:"name"`
	Age    int     `json:"age"`
	Active bool    `json:"active"`
	Score  float64 `json:"score"`
}

type BenchmarkData struct {
	Name    string   `json:"name"`
	Age     int      `json:"age"`
	Email   string   `json:"email"`
	Active  bool     `json:"active"`
	Score   float64  `json:"score"`
	Tags    []string `json:"tags"`
	Address *Address `json:"address"`
}

type Address struct {
	Street  string `json:"street"`
	City    string `json:"city"`
	Country string `json:"country"`
	ZipCode string `json:"zip_code"`
}

func createBenchmarkData() BenchmarkData {
	return BenchmarkData{
		Name:   "John Doe",
		Age:    30,
		Email:  "john@example.com",
		Active: true,
		Score:  95.5,
		Tags:   []string{"developer", "golang", "json"},
		Address: &Address{
			Street:  "123 Main St",
			City:    "San Francisco",
			Country: "USA",
			ZipCode: "94102",
		},
	}
}

func createBenchmarkMap() map[string]any {
	return map[string]any{
		"name":   "John Doe",
		"age":    30,
		"active": true,
		"tags":   []any{"a", "b", "c"},
		"nested": map[string]any{"x": 1.5, "y": nil},
	}
}

func BenchmarkNanojson_Marshal(b *testing.B) {
	data := createBenchmarkData()
	b.ReportAllocs()
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		if _, err := Marshal(data); err != nil {
			b.Fatal(err)
		}
	}
}

func BenchmarkNanojson_Marshal_Generated(b *testing.B) {
	registerBenchmarkDescriptors()
	defer UnregisterMembers[BenchmarkData]()
	defer UnregisterMembers[Address]()

	data := createBenchmarkData()
	opts := Options{Introspector: Generated}
	b.ReportAllocs()
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		if _, err := MarshalOptions(data, opts); err != nil {
			b.Fatal(err)
		}
	}
}

func BenchmarkStdlib_Marshal(b *testing.B) {
	data := createBenchmarkData()
	b.ReportAllocs()
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		if _, err := stdjson.Marshal(data); err != nil {
			b.Fatal(err)
		}
	}
}

func BenchmarkJsoniter_Marshal(b *testing.B) {
	data := createBenchmarkData()
	api := jsoniter.ConfigCompatibleWithStandardLibrary
	b.ReportAllocs()
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		if _, err := api.Marshal(data); err != nil {
			b.Fatal(err)
		}
	}
}

func BenchmarkNanojson_Marshal_Map(b *testing.B) {
	data := createBenchmarkMap()
	b.ReportAllocs()
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		if _, err := Marshal(data); err != nil {
			b.Fatal(err)
		}
	}
}

func BenchmarkStdlib_Marshal_Map(b *testing.B) {
	data := createBenchmarkMap()
	b.ReportAllocs()
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		if _, err := stdjson.Marshal(data); err != nil {
			b.Fatal(err)
		}
	}
}

func BenchmarkNanojson_MarshalAppend_Array(b *testing.B) {
	data := []SimplePerson{
		{Name: "John", Age: 30},
		{Name: "Jane", Age: 25},
		{Name: "Bob", Age: 35},
	}
	buf := make([]byte, 0, 512)

	b.ReportAllocs()
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		var err error
		buf, err = MarshalAppend(buf[:0], data)
		if err != nil {
			b.Fatal(err)
		}
	}
}

func BenchmarkNanojson_MarshalTo_Simple(b *testing.B) {
	data := SimplePerson{
		Name: "John Doe",
		Age:  30,
	}
	buf := make([]byte, 256)

	b.ReportAllocs()
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		if _, err := MarshalTo(data, buf); err != nil {
			b.Fatal(err)
		}
	}
}

func BenchmarkEscapeString(b *testing.B) {
	clean := "The quick brown fox jumps over the lazy dog, twice over and then some more"
	dirty := "line1\nline2\t\"quoted\" and a backslash \\ in the middle of some text"

	b.Run("clean", func(b *testing.B) {
		b.SetBytes(int64(len(clean)))
		for i := 0; i < b.N; i++ {
			_ = EscapeString(clean)
		}
	})
	b.Run("dirty", func(b *testing.B) {
		b.SetBytes(int64(len(dirty)))
		for i := 0; i < b.N; i++ {
			_ = EscapeString(dirty)
		}
	})
}

// registerBenchmarkDescriptors installs what genencoder would emit for the
// benchmark types
func registerBenchmarkDescriptors() {
	RegisterMembers(func(v *BenchmarkData, dst []Member) []Member {
		dst = append(dst, Member{Name: "name", Value: v.Name})
		dst = append(dst, Member{Name: "age", Value: v.Age})
		dst = append(dst, Member{Name: "email", Value: v.Email})
		dst = append(dst, Member{Name: "active", Value: v.Active})
		dst = append(dst, Member{Name: "score", Value: v.Score})
		dst = append(dst, Member{Name: "tags", Value: v.Tags})
		dst = append(dst, Member{Name: "address", Value: v.Address})
		return dst
	})
	RegisterMembers(func(v *Address, dst []Member) []Member {
		dst = append(dst, Member{Name: "street", Value: v.Street})
		dst = append(dst, Member{Name: "city", Value: v.City})
		dst = append(dst, Member{Name: "country", Value: v.Country})
		dst = append(dst, Member{Name: "zip_code", Value: v.ZipCode})
		return dst
	})
}
