package paper

// sampleFeed はarXiv APIのレスポンス形式を模したAtomフィード。
const sampleFeed = `<?xml version="1.0" encoding="UTF-8"?>
<feed xmlns="http://www.w3.org/2005/Atom">
  <title type="html">ArXiv Query: search_query=cat:cs.*</title>
  <id>http://arxiv.org/api/abc</id>
  <updated>2024-05-01T00:00:00-04:00</updated>
  <entry>
    <id>http://arxiv.org/abs/2405.00001v1</id>
    <updated>2024-05-01T17:59:59Z</updated>
    <published>2024-05-01T17:59:59Z</published>
    <title>Efficient   Transformers
      for Long Documents</title>
    <summary>  Transformer models are widely used.
  We propose a &lt;b&gt;sparse&lt;/b&gt; variant.  </summary>
    <author><name>Alice Smith</name></author>
    <author><name>Bob Jones</name></author>
    <link href="http://arxiv.org/abs/2405.00001v1" rel="alternate" type="text/html"/>
    <link title="pdf" href="http://arxiv.org/pdf/2405.00001v1" rel="related" type="application/pdf"/>
    <category term="cs.CL" scheme="http://arxiv.org/schemas/atom"/>
    <category term="cs.LG" scheme="http://arxiv.org/schemas/atom"/>
  </entry>
  <entry>
    <id>http://arxiv.org/abs/2405.00002v1</id>
    <published>2024-05-01T10:00:00Z</published>
    <title>Graph Neural Networks without Authors</title>
    <summary>A study of message passing.</summary>
    <category term="cs.LG" scheme="http://arxiv.org/schemas/atom"/>
  </entry>
  <entry>
    <id>urn:missing-link</id>
    <published>2024-05-01T09:00:00Z</published>
    <title>Entry Without Any Link</title>
    <summary>Should be dropped.</summary>
  </entry>
  <entry>
    <id>http://arxiv.org/abs/2405.00004v1</id>
    <published>2024-05-01T08:00:00Z</published>
    <title>   </title>
    <summary>Entry without a title is dropped.</summary>
    <link href="http://arxiv.org/abs/2405.00004v1" rel="alternate" type="text/html"/>
  </entry>
</feed>`

// emptyFeed はエントリを含まない有効なAtomフィード。
const emptyFeed = `<?xml version="1.0" encoding="UTF-8"?>
<feed xmlns="http://www.w3.org/2005/Atom">
  <title>ArXiv Query</title>
  <id>http://arxiv.org/api/empty</id>
  <updated>2024-05-01T00:00:00-04:00</updated>
</feed>`
