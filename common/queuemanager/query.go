package queuemanager

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/mcuadros/go-defaults"
	"github.com/yanshicheng/kube-nova-board/common/queuemanager/types"
)

var validate = validator.New(validator.WithRequiredStructEnabled())

// ParseQueueQuery 内联队列查询的唯一构造入口
// 严格解码（拒绝未知字段），填充默认值后再做结构校验。
func ParseQueueQuery(data []byte) (types.QueueQuery, error) {
	var query types.QueueQuery

	dec := json.NewDecoder(bytes.NewReader(data))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&query); err != nil {
		return types.QueueQuery{}, fmt.Errorf("%w: %v", types.ErrInvalidQueueQuery, err)
	}
	// 只允许一个 JSON 对象
	if err := dec.Decode(&struct{}{}); !errors.Is(err, io.EOF) {
		return types.QueueQuery{}, fmt.Errorf("%w: 请求体只能包含一个 JSON 对象", types.ErrInvalidQueueQuery)
	}

	return NormalizeQueueQuery(query)
}

// NormalizeQueueQuery 填充默认值并校验，配置表中的查询同样走这里
func NormalizeQueueQuery(query types.QueueQuery) (types.QueueQuery, error) {
	query.Provider = strings.TrimSpace(query.Provider)
	query.Queue = strings.TrimSpace(query.Queue)

	defaults.SetDefaults(&query)

	if err := validate.Struct(&query); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) {
			msgs := make([]string, 0, len(verrs))
			for _, fe := range verrs {
				msgs = append(msgs, fmt.Sprintf("%s 不满足 %s", fe.Field(), describeTag(fe)))
			}
			return types.QueueQuery{}, fmt.Errorf("%w: %s", types.ErrInvalidQueueQuery, strings.Join(msgs, "; "))
		}
		return types.QueueQuery{}, fmt.Errorf("%w: %v", types.ErrInvalidQueueQuery, err)
	}
	return query, nil
}

func describeTag(fe validator.FieldError) string {
	if fe.Param() == "" {
		return fe.Tag()
	}
	return fe.Tag() + "=" + fe.Param()
}
