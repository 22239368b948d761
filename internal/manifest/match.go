package manifest

import (
	"subgrab/internal/jsontree"
)

// Shape identifies which known response layout produced a record.
type Shape int

const (
	// ShapeManifest is result.{movieId, timedtexttracks}.
	ShapeManifest Shape = iota + 1
	// ShapeNestedResult is result.result.{movieId, timedtexttracks}.
	ShapeNestedResult
	// ShapeMovies is result.movies[id].{movieId, timedtexttracks}.
	ShapeMovies
)

func (s Shape) String() string {
	switch s {
	case ShapeManifest:
		return "manifest"
	case ShapeNestedResult:
		return "nested_result"
	case ShapeMovies:
		return "movies"
	default:
		return "unknown"
	}
}

// Record is the normalized form of one matched item.
type Record struct {
	ItemID    string
	RawTracks []*jsontree.Value
	Shape     Shape
}

// Match returns every subtitle-bearing record in payload. Shapes are tried
// independently, so one payload can yield several records.
func Match(payload *jsontree.Value) []Record {
	result, ok := payload.Get("result")
	if !ok || !result.IsObject() {
		return nil
	}

	var records []Record
	if movieID, ok := result.Get("movieId"); ok && movieID.Truthy() {
		if rec, ok := recordFor(result, "", ShapeManifest); ok {
			records = append(records, rec)
		}
	}
	if nested, ok := result.Get("result"); ok {
		if rec, ok := recordFor(nested, "", ShapeNestedResult); ok {
			records = append(records, rec)
		}
	}
	if movies, ok := result.Get("movies"); ok {
		for _, m := range movies.Members() {
			if rec, ok := recordFor(m.Value, m.Key, ShapeMovies); ok {
				records = append(records, rec)
			}
		}
	}
	return records
}

func recordFor(movie *jsontree.Value, fallbackID string, shape Shape) (Record, bool) {
	tracks, ok := movie.Get("timedtexttracks")
	if !ok || !tracks.IsArray() {
		return Record{}, false
	}
	itemID := ""
	if raw, ok := movie.Get("movieId"); ok && raw.Truthy() {
		itemID, _ = raw.Scalar()
	}
	if itemID == "" {
		itemID = fallbackID
	}
	if itemID == "" {
		return Record{}, false
	}
	return Record{ItemID: itemID, RawTracks: tracks.Items(), Shape: shape}, true
}
