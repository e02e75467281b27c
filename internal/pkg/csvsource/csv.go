package csvsource

import (
	"Pulseboard/internal/model"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
)

// column 一列如何写入 RawPost
type column func(r *model.RawPost, cell string) error

func stringColumn(field func(r *model.RawPost) **string) column {
	return func(r *model.RawPost, cell string) error {
		*field(r) = model.Ptr(cell)
		return nil
	}
}

func intColumn(name string, field func(r *model.RawPost) **int64) column {
	return func(r *model.RawPost, cell string) error {
		// 支持 "12.0" 这类导出工具写出的整数
		v, err := strconv.ParseInt(cell, 10, 64)
		if err != nil {
			f, ferr := strconv.ParseFloat(cell, 64)
			if ferr != nil || f != float64(int64(f)) {
				return &model.SchemaViolation{Index: -1, Field: name, Rule: "integer", Value: cell}
			}
			v = int64(f)
		}
		*field(r) = model.Ptr(v)
		return nil
	}
}

// knownColumns 声明的列，其余列直接丢弃
var knownColumns = map[string]column{
	"post_id":         intColumn("post_id", func(r *model.RawPost) **int64 { return &r.PostID }),
	"platform":        stringColumn(func(r *model.RawPost) **string { return &r.Platform }),
	"post_type":       stringColumn(func(r *model.RawPost) **string { return &r.PostType }),
	"post_time":       stringColumn(func(r *model.RawPost) **string { return &r.PostTime }),
	"posted_date":     stringColumn(func(r *model.RawPost) **string { return &r.PostedDate }),
	"posted_time":     stringColumn(func(r *model.RawPost) **string { return &r.PostedTime }),
	"likes":           intColumn("likes", func(r *model.RawPost) **int64 { return &r.Likes }),
	"comments":        intColumn("comments", func(r *model.RawPost) **int64 { return &r.Comments }),
	"shares":          intColumn("shares", func(r *model.RawPost) **int64 { return &r.Shares }),
	"sentiment_score": stringColumn(func(r *model.RawPost) **string { return &r.SentimentScore }),
}

var requiredColumns = []string{"platform", "post_type", "likes", "comments", "shares", "sentiment_score"}

// ErrEmptyCSV 没有表头
var ErrEmptyCSV = errors.New("csv has no header row")

func normalizeHeader(h string) string {
	h = strings.TrimPrefix(h, "\ufeff")
	return strings.ToLower(strings.TrimSpace(h))
}

// Parse 按表头解析 CSV。未声明的列被丢弃，空白单元格视为缺失；
// 缺少必需列或计数列非整数时返回 SchemaViolation
func Parse(r io.Reader) ([]model.RawPost, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1
	reader.TrimLeadingSpace = true

	header, err := reader.Read()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return nil, ErrEmptyCSV
		}
		return nil, fmt.Errorf("read csv header: %w", err)
	}

	columns := make([]column, len(header))
	present := make(map[string]bool, len(header))
	for i, h := range header {
		name := normalizeHeader(h)
		if col, ok := knownColumns[name]; ok && !present[name] {
			columns[i] = col
			present[name] = true
		}
	}
	for _, name := range requiredColumns {
		if !present[name] {
			return nil, &model.SchemaViolation{Index: -1, Field: name, Rule: "required_column"}
		}
	}
	if !present["post_time"] && !present["posted_date"] {
		return nil, &model.SchemaViolation{Index: -1, Field: "post_time", Rule: "required_column"}
	}

	records := make([]model.RawPost, 0)
	for line := 2; ; line++ {
		row, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("read csv line %d: %w", line, err)
		}
		if isBlank(row) {
			continue
		}

		var rec model.RawPost
		for i, cell := range row {
			if i >= len(columns) || columns[i] == nil {
				continue
			}
			cell = strings.TrimSpace(cell)
			if cell == "" {
				continue
			}
			if err = columns[i](&rec, cell); err != nil {
				var violation *model.SchemaViolation
				if errors.As(err, &violation) {
					violation.Index = len(records)
				}
				return nil, err
			}
		}
		records = append(records, rec)
	}
	return records, nil
}

func isBlank(row []string) bool {
	for _, cell := range row {
		if strings.TrimSpace(cell) != "" {
			return false
		}
	}
	return true
}

// Header 生成 CSV 时使用的列顺序
var Header = []string{"post_id", "platform", "post_type", "post_time", "likes", "comments", "shares", "sentiment_score"}

// Write 把原始记录写成 CSV，缺失字段写为空
func Write(w io.Writer, records []model.RawPost) error {
	writer := csv.NewWriter(w)
	if err := writer.Write(Header); err != nil {
		return err
	}
	for _, r := range records {
		row := []string{
			formatInt(r.PostID),
			formatString(r.Platform),
			formatString(r.PostType),
			formatString(r.PostTime),
			formatInt(r.Likes),
			formatInt(r.Comments),
			formatInt(r.Shares),
			formatString(r.SentimentScore),
		}
		if err := writer.Write(row); err != nil {
			return err
		}
	}
	writer.Flush()
	return writer.Error()
}

func formatInt(v *int64) string {
	if v == nil {
		return ""
	}
	return strconv.FormatInt(*v, 10)
}

func formatString(v *string) string {
	if v == nil {
		return ""
	}
	return *v
}
