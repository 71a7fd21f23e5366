package order

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

// NewOrderNumber 生成对外展示的订单号，例如 ORD-20260829-3F7A2C1B。
// 随机段来自 uuid，仍按“唯一索引 + 冲突重试”处理，不单靠随机性保证唯一。
func NewOrderNumber(now time.Time) string {
	suffix := strings.ToUpper(strings.ReplaceAll(uuid.NewString(), "-", ""))[:8]
	return fmt.Sprintf("ORD-%s-%s", now.Format("20060102"), suffix)
}
