package ai

// SummaryPrompt asks for a short abstract of the provided text.
// Filled with the (already truncated) document text.
const SummaryPrompt = `请为以下文本生成一个简短的摘要（100字以内）：

%s`

// ExtractEntitiesPrompt asks for named entities as a JSON array. The raw
// completion may contain prose around the array; callers locate the
// outermost [...] span before decoding.
const ExtractEntitiesPrompt = `请从以下文本中提取命名实体，并以JSON格式返回结果。
实体类型包括：人物、组织、公司、地点、时间、其他。
返回格式示例：
[
  {"name": "马云", "type": "人物"},
  {"name": "阿里巴巴", "type": "公司"},
  {"name": "杭州", "type": "地点"}
]

文本内容：
%s`

// ExtractRelationsPrompt asks for persons and person-to-person relations.
// Filled with the role vocabulary and the relation vocabulary, both joined
// by "、". The chunk text is sent as the user message.
const ExtractRelationsPrompt = `请提取该文书中提到的所有人名及关系。
严格返回json格式，将人名列表放置在"persons"字段中，将人物关系放置在"relations"中：
- persons，list，抽取到的人物列表：
    - name，str，人物姓名
    - role，str，人物在本案中的角色，要求在文书中明确提及，只包括以下角色：%s
    - role_desc，str，文书中明确提及人物角色的原文描述
- relations，list，实体关系列表：
    - subject，str，主体人名，必填字段，采用"persons"中内容
    - object，str，客体人名，必填字段，采用"persons"中内容
    - relation，str，实体关系，必填字段，只包括以下关系：%s
    - event，str，事件经过，包含实体行为、时间、地点等事件信息`

// RAGPrompt is the answer-generation template. Filled with the assembled
// context first and the user question second.
const RAGPrompt = `你是一个基于知识库的智能问答助手。请根据以下检索到的文档内容回答用户问题。
如果文档内容不足以回答问题，请如实说明，不要编造信息。

检索到的文档内容：
%s

用户问题：%s

请给出准确、简洁的回答：`

// NoInformationResponse is returned when similarity search finds nothing.
const NoInformationResponse = "我在知识库中没有找到与您问题相关的信息。请尝试调整问题或上传更多相关文档。"

// ApologyResponse is returned when answer generation fails.
const ApologyResponse = "抱歉，处理您的问题时遇到了错误。请稍后再试。"
