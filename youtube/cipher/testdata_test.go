package cipher

// playerFixture mimics the relevant fragments of a base.js player.
const playerFixture = `var _yt_player={};(function(g){var window=this;
var XyZ={Ab:function(a,b){a.splice(0,b)},Cd:function(a){a.reverse()},
Ef:function(a,b){var c=a[0];a[0]=a[b%a.length];a[b%a.length]=c}};
g.Config={signatureTimestamp:19834,sts:1};
Qr=function(a){a=a.split("");XyZ.Cd(a,37);XyZ.Ef(a,2);XyZ.Ab(a,1);return a.join("")};
g.sig=function(h){var m;h.s&&(m=Qr(decodeURIComponent(h.s)));return m};
var Wka=[Ypa];
g.vn=function(a){var b;a.get("n"))&&(b=Wka[0](b),a.set("n",b),Wka.length||Yo(""))};
Ypa=function(a){var b=a.split(""),c=b.length,d="}{",e=/[}]/g;if(typeof Foo==="undefined")return a;b.reverse();b.push(c%7);return b.join("").replace(e,d)};
})(_yt_player);`

const (
	signatureIn  = "ABCDEFGHIJ"
	signatureOut = "IJGFEDCBA"
	throttleIn   = "abcdef"
	throttleOut  = "fedcba6"
)

// player4fbb4d5b carries the helper object and signature function of
// https://youtube.com/s/player/4fbb4d5b/player_ias.vflset/en_US/base.js.
// The surrounding call site and the function name are filled in.
const player4fbb4d5b = `var _yt_player={};(function(g){var window=this;
var Mt={splice:function(a,b){a.splice(0,b)},
reverse:function(a){a.reverse()},
EQ:function(a,b){var c=a[0];a[0]=a[b%a.length];a[b%a.length]=c}};
sE=function(a){a=a.split("");Mt.splice(a,3);Mt.EQ(a,39);Mt.splice(a,2);Mt.EQ(a,1);Mt.splice(a,1);Mt.EQ(a,35);Mt.EQ(a,51);Mt.splice(a,2);Mt.reverse(a,52);return a.join("")};
g.ZK=function(a,b,c){c&&(c=sE(decodeURIComponent(c)));a.set(b,encodeURIComponent(c))};
})(_yt_player);`

const (
	signature4fbb4d5bIn  = "0123456789ABCDEFGHIJKLMNOPQRSTUVWXYZabcdefghijklmnopqrstuvwxyz"
	signature4fbb4d5bOut = "zyxwfutsrqponmlkjih35edcbaZYXWVUTSRQPONMLKJIHGFEDCBA98"
)
