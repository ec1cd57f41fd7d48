package dataset

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/rushteam/ecomrec/core"
)

// Product 是商品目录中的一条记录。
// 引擎只消费文本描述（name/category/description → 内容相似度）；
// 其余商品属性（price/stock/rating/image 等）原样透传给调用方。
type Product struct {
	ID          int64
	Name        string
	Category    string
	Description string
	Price       float64
	Stock       int64
	Rating      float64

	// Extra 保存目录里引擎不认识的其他列，原样透传
	Extra map[string]string
}

// CombinedText 返回内容相似度使用的文本描述：name + category + description。
func (p *Product) CombinedText() string {
	return p.Name + " " + p.Category + " " + p.Description
}

// Catalog 是商品目录的不可变快照。
type Catalog struct {
	products map[int64]*Product
	order    []int64 // 目录中的原始顺序
}

// NewCatalog 从商品列表构建目录快照，重复 ID 后者覆盖前者。
func NewCatalog(products []*Product) *Catalog {
	c := &Catalog{products: make(map[int64]*Product, len(products))}
	for _, p := range products {
		if p == nil || p.ID < 1 {
			continue
		}
		if _, ok := c.products[p.ID]; !ok {
			c.order = append(c.order, p.ID)
		}
		c.products[p.ID] = p
	}
	return c
}

// Len 返回商品数。
func (c *Catalog) Len() int { return len(c.order) }

// Get 按 ID 查找商品，未知 ID 返回 nil。
func (c *Catalog) Get(id int64) *Product {
	return c.products[id]
}

// IDs 返回目录顺序的商品 ID 列表（调用方不得修改）。
func (c *Catalog) IDs() []int64 { return c.order }

// Attach 将商品属性挂到推荐结果的 Meta 上。
// 目录里没有的物品保持原样返回（交互数据可能先于目录出现新物品）。
func (c *Catalog) Attach(item *core.Item) *core.Item {
	p := c.Get(item.ID)
	if p == nil {
		return item
	}
	item.PutMeta("name", p.Name)
	item.PutMeta("category", p.Category)
	item.PutMeta("description", p.Description)
	item.PutMeta("price", p.Price)
	item.PutMeta("stock", float64(p.Stock))
	item.PutMeta("rating", p.Rating)
	for k, v := range p.Extra {
		item.PutMeta(k, v)
	}
	return item
}

// ReadCatalog 从 CSV 读取商品目录。
// 要求 header 至少包含 id、name、category、description；
// price/stock/rating 可选，未知列进入 Extra。
func ReadCatalog(r io.Reader) (*Catalog, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1

	header, err := cr.Read()
	if err != nil {
		return nil, fmt.Errorf("read catalog header: %w", err)
	}
	cols := make([]string, len(header))
	idCol := -1
	for i, name := range header {
		cols[i] = strings.TrimSpace(strings.ToLower(name))
		if cols[i] == "id" {
			idCol = i
		}
	}
	if idCol < 0 {
		return nil, core.NewDomainError(core.ModuleDataset, core.ErrorCodeDataIntegrity,
			"dataset: catalog csv must have an id column")
	}

	var products []*Product
	line := 1
	for {
		rec, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("read catalog row: %w", err)
		}
		line++

		p := &Product{Extra: make(map[string]string)}
		for i, col := range cols {
			if i >= len(rec) {
				break
			}
			val := strings.TrimSpace(rec[i])
			switch col {
			case "id":
				p.ID, err = strconv.ParseInt(val, 10, 64)
				if err != nil {
					return nil, core.NewDomainErrorf(core.ModuleDataset, core.ErrorCodeDataIntegrity,
						"dataset: catalog line %d: non-numeric id %q", line, val)
				}
			case "name":
				p.Name = val
			case "category":
				p.Category = val
			case "description":
				p.Description = val
			case "price":
				p.Price, _ = strconv.ParseFloat(val, 64)
			case "stock":
				p.Stock, _ = strconv.ParseInt(val, 10, 64)
			case "rating":
				p.Rating, _ = strconv.ParseFloat(val, 64)
			default:
				p.Extra[col] = val
			}
		}
		products = append(products, p)
	}
	return NewCatalog(products), nil
}

// LoadCatalog 从文件读取商品目录。
func LoadCatalog(path string) (*Catalog, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open catalog: %w", err)
	}
	defer f.Close()
	return ReadCatalog(f)
}
