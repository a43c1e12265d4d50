package public

import "github.com/cashback-next/internal/provider"

// Handler 用户侧接口处理器入口
// 说明：该处理器仅用于用户侧 API（报价、兑换促销码、账户查询）。
type Handler struct {
	*provider.Container
}

// New 创建用户侧处理器
func New(c *provider.Container) *Handler {
	return &Handler{Container: c}
}
