package results

import (
	"encoding/json"
	"net/url"
	"strconv"

	"github.com/JaimeStill/rapid/pkg/query"
	"github.com/JaimeStill/rapid/pkg/repository"
)

var table = query.NewTable("public", "review_results", "r").
	Column("ID", "id").
	Column("ReviewResultID", "review_result_id").
	Column("ReviewJobID", "review_job_id").
	Column("CheckID", "check_id").
	Column("Result", "result").
	Column("Confidence", "confidence").
	Column("ReviewType", "review_type").
	Column("Explanation", "explanation").
	Column("ShortExplanation", "short_explanation").
	Column("ModelID", "model_id").
	Column("TotalCost", "total_cost").
	Column("Payload", "payload").
	Column("Overridden", "overridden").
	Column("VerifiedBy", "verified_by").
	Column("VerifiedAt", "verified_at").
	Column("CreatedAt", "created_at").
	Column("UpdatedAt", "updated_at")

var defaultSort = query.SortField{Field: "CreatedAt", Descending: true}

// Filters narrow a listing. Nil fields are ignored.
type Filters struct {
	ReviewJobID *string
	CheckID     *string
	Result      *string
	ReviewType  *string
	Verified    *bool
}

// Apply adds the filter conditions to b.
func (f Filters) Apply(b *query.Builder) *query.Builder {
	var unverified *bool
	if f.Verified != nil {
		v := !*f.Verified
		unverified = &v
	}
	return b.
		Equals("ReviewJobID", f.ReviewJobID).
		Equals("CheckID", f.CheckID).
		Equals("Result", f.Result).
		Equals("ReviewType", f.ReviewType).
		IsNull("VerifiedAt", unverified)
}

// FiltersFromQuery reads review_job_id, check_id, result, review_type and
// verified from values.
func FiltersFromQuery(values url.Values) Filters {
	var f Filters
	str := func(key string) *string {
		if v := values.Get(key); v != "" {
			return &v
		}
		return nil
	}

	f.ReviewJobID = str("review_job_id")
	f.CheckID = str("check_id")
	f.Result = str("result")
	f.ReviewType = str("review_type")
	if v := values.Get("verified"); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			f.Verified = &b
		}
	}
	return f
}

func scanRecord(s repository.Scanner) (Record, error) {
	var (
		r       Record
		payload []byte
	)
	err := s.Scan(
		&r.ID,
		&r.ReviewResultID,
		&r.ReviewJobID,
		&r.CheckID,
		&r.Result,
		&r.Confidence,
		&r.ReviewType,
		&r.Explanation,
		&r.ShortExplanation,
		&r.ModelID,
		&r.TotalCost,
		&payload,
		&r.Overridden,
		&r.VerifiedBy,
		&r.VerifiedAt,
		&r.CreatedAt,
		&r.UpdatedAt,
	)
	r.Payload = json.RawMessage(payload)
	return r, err
}
