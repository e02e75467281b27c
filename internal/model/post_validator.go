package model

import (
	"errors"
	"fmt"
	"reflect"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
)

// ErrSchemaViolation 记录不符合 Post 结构约束
var ErrSchemaViolation = errors.New("记录不符合数据结构约束")

// SchemaViolation 标识具体违反约束的字段
type SchemaViolation struct {
	Index int    // 批次中的位置，单条校验时为 -1
	Field string // json 字段名
	Rule  string
	Value any
}

func (e *SchemaViolation) Error() string {
	if e.Index >= 0 {
		return fmt.Sprintf("record %d: field [%s] violates rule [%s] (value=%v)", e.Index, e.Field, e.Rule, e.Value)
	}
	return fmt.Sprintf("field [%s] violates rule [%s] (value=%v)", e.Field, e.Rule, e.Value)
}

func (e *SchemaViolation) Unwrap() error {
	return ErrSchemaViolation
}

var validate *validator.Validate

func init() {
	validate = validator.New(validator.WithRequiredStructEnabled())

	// 使用 json 名作为字段名，便于定位 CSV 列
	validate.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})

	weekdays := make([]string, 0, 8)
	for d := time.Sunday; d <= time.Saturday; d++ {
		weekdays = append(weekdays, d.String())
	}
	months := make([]string, 0, 13)
	for m := time.January; m <= time.December; m++ {
		months = append(months, m.String())
	}

	// 分类字段允许 Unknown，它是缺失值填充后的合法取值
	registerEnum("platform", append(Platforms, Unknown))
	registerEnum("post_type", append(PostTypes, Unknown))
	registerEnum("sentiment", append(Sentiments, Unknown))
	registerEnum("weekday", append(weekdays, Unknown))
	registerEnum("month", append(months, Unknown))
	registerEnum("engagement_level", EngagementLevels)
}

func registerEnum(tag string, values []string) {
	set := make(map[string]struct{}, len(values))
	for _, v := range values {
		set[v] = struct{}{}
	}
	_ = validate.RegisterValidation(tag, func(fl validator.FieldLevel) bool {
		_, ok := set[fl.Field().String()]
		return ok
	})
}

// ValidatePost 校验单条记录
func ValidatePost(p *Post) error {
	return validatePost(p, -1)
}

// ValidatePosts 校验整批记录，返回第一条违规
func ValidatePosts(posts []*Post) error {
	for i, p := range posts {
		if err := validatePost(p, i); err != nil {
			return err
		}
	}
	return nil
}

func validatePost(p *Post, index int) error {
	if p == nil {
		return &SchemaViolation{Index: index, Field: "record", Rule: "required"}
	}
	if err := validate.Struct(p); err != nil {
		var vErrs validator.ValidationErrors
		if errors.As(err, &vErrs) {
			first := vErrs[0]
			return &SchemaViolation{Index: index, Field: first.Field(), Rule: first.Tag(), Value: first.Value()}
		}
		return err
	}

	if p.PostedDate != "" {
		if _, err := time.Parse(DateLayout, p.PostedDate); err != nil {
			return &SchemaViolation{Index: index, Field: "posted_date", Rule: "date", Value: p.PostedDate}
		}
	}
	if p.PostedTime != "" {
		if _, err := time.Parse(TimeLayout, p.PostedTime); err != nil {
			return &SchemaViolation{Index: index, Field: "posted_time", Rule: "time", Value: p.PostedTime}
		}
	}
	if p.TotalEngagement != p.Likes+p.Comments+p.Shares {
		return &SchemaViolation{Index: index, Field: "total_engagement", Rule: "sum", Value: p.TotalEngagement}
	}
	if p.Likes == 0 && p.EngagementRatio != 0 {
		return &SchemaViolation{Index: index, Field: "engagement_ratio", Rule: "zero_likes", Value: p.EngagementRatio}
	}
	return nil
}
