package mindmap

import "github.com/01moynul/renovation-mindmap/internal/models"

// SampleRootName is the root of the placeholder tree served when real data
// cannot be built.
const SampleRootName = "装修总流程"

// SampleTree returns a fresh copy of the hand-authored placeholder tree.
// Callers may mutate the result freely.
func SampleTree() *models.TreeNode {
	return &models.TreeNode{
		Name:    SampleRootName,
		Details: []models.Detail{},
		ImgURL:  []string{},
		Children: []*models.TreeNode{
			sampleNode("设计阶段",
				[]models.Detail{
					{Text: "确定装修风格", Image: "/resources/style1.png"},
					{Text: "量房测绘", Image: "/resources/test1.png"},
					{Text: "施工图纸审核", Image: "/resources/style1.png"},
				},
				sampleNode("方案确认", []models.Detail{
					{Text: "业主需求沟通", Image: "/resources/style1.png"},
					{Text: "3D效果图制作", Image: "/resources/style1.png"},
				}),
				sampleNode("材料选购", []models.Detail{
					{Text: "主材清单制定", Image: "/resources/style1.png"},
					{Text: "环保等级确认", Image: "/resources/test1.png"},
				}),
			),
			sampleNode("施工阶段",
				[]models.Detail{
					{Text: "水电改造", Image: "/resources/style1.png"},
					{Text: "防水工程", Image: "/resources/style1.png"},
					{Text: "墙面处理", Image: "/resources/style1.png"},
				},
				sampleNode("隐蔽工程", []models.Detail{
					{Text: "管线铺设规范", Image: "/resources/style1.png"},
					{Text: "压力测试", Image: "/resources/style1.png"},
				}),
				sampleNode("泥木工程", []models.Detail{
					{Text: "瓷砖铺贴", Image: "/resources/style1.png"},
					{Text: "吊顶施工", Image: "/resources/style1.png"},
				}),
			),
		},
	}
}

func sampleNode(name string, details []models.Detail, children ...*models.TreeNode) *models.TreeNode {
	if children == nil {
		children = []*models.TreeNode{}
	}
	return &models.TreeNode{
		Name:     name,
		Details:  details,
		ImgURL:   []string{},
		Children: children,
	}
}
