package output

import (
	"fmt"
	"sort"
	"strings"

	"github.com/Alias1177/LottoPredictor/models"
)

// UnparsedMessage is shown when no prediction could be extracted
const UnparsedMessage = "未能解析预测结果，请检查依赖与模型是否正确安装/训练。"

const placeholder = "--"

// Format renders the prediction summary of the variant
func Format(v models.VariantConfig, res models.PredictionResult) string {
	if len(res) == 0 {
		return UnparsedMessage
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, "\n===== %s预测结果 =====\n", v.Name)
	fmt.Fprintf(&sb, "红球(%d): %s\n", v.RedCount, row(res.Numbers(v, models.Red)))
	fmt.Fprintf(&sb, "蓝球(%d): %s\n", v.BlueCount, row(res.Numbers(v, models.Blue)))
	return sb.String()
}

// row sorts the numbers ascending, zero-pads them and appends a placeholder per missing position
func row(nums []int, missing int) string {
	sorted := append([]int(nil), nums...)
	sort.Ints(sorted)

	cells := make([]string, 0, len(sorted)+missing)
	for _, n := range sorted {
		cells = append(cells, fmt.Sprintf("%02d", n))
	}
	for i := 0; i < missing; i++ {
		cells = append(cells, placeholder)
	}
	return strings.Join(cells, " ")
}
